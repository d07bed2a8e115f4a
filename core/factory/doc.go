// Package factory instantiates pluggable modules from configuration. A
// module is selected by a type string and configured by a map of raw
// settings that its factory decodes into a typed struct.
//
//	reg := factory.NewRegistry[stats.Store]()
//	reg.Register("jsonl", func(conf map[string]any) (stats.Store, error) {
//	    var c struct{ Path string `json:"path"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return statstore.NewJSONL(c.Path)
//	})
//	s, err := reg.Create(factory.ModuleConfig{Type: "jsonl", Conf: map[string]any{"path": "stats.jsonl"}})
package factory
