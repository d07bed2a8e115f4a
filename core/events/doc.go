// Package events defines the plan runtime events emitted on the event bus.
//
// Available event types:
//   - PlanEvent: plan lifecycle change (loaded, started, stopped, cleared)
//   - ManeuverEvent: maneuver started or done
//   - ProgressEvent: new progress and ETA value
//   - CalibrationEvent: calibration window transition
//   - StatisticsEvent: pre or post execution statistics
//   - ActivationEvent: entity activation or deactivation request
package events
