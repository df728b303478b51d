package catalog

// Snapshot is the catalog's debug-serializable form (§4.3: "optionally
// serializable for debugging; not a durability layer"). AST pointers
// are intentionally dropped — a snapshot only carries the resolved
// declarations, not the original parse tree.
type Snapshot struct {
	Transforms       []TransformDecl               `json:"transforms"`
	Pipelines        []PipelineDecl                `json:"pipelines"`
	Connectors       []KafkaConnectorMeta           `json:"connectors"`
	Predicates       []PredicateDecl                `json:"predicates"`
	Models           []ModelDecl                    `json:"models"`
	Pythons          []PythonDecl                   `json:"pythons"`
	WarehouseSources map[string]WarehouseSourceDec  `json:"warehouse_sources"`
}

// Snapshot captures the current contents of the store for debug
// serialization. It does not hold the lock while the caller encodes
// the result, since the returned value is a deep-enough copy (struct
// values, not pointers into the store's maps).
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{WarehouseSources: make(map[string]WarehouseSourceDec, len(s.warehouseSources))}
	for _, t := range s.transformsByID {
		tc := *t
		tc.AST = nil
		snap.Transforms = append(snap.Transforms, tc)
	}
	for _, p := range s.pipelines {
		pc := *p
		pc.AST = nil
		snap.Pipelines = append(snap.Pipelines, pc)
	}
	for _, c := range s.connectors {
		cc := *c
		cc.AST = nil
		snap.Connectors = append(snap.Connectors, cc)
	}
	for _, p := range s.predicates {
		snap.Predicates = append(snap.Predicates, *p)
	}
	for _, m := range s.models {
		mc := *m
		mc.AST = nil
		snap.Models = append(snap.Models, mc)
	}
	for _, py := range s.pythons {
		snap.Pythons = append(snap.Pythons, *py)
	}
	for k, v := range s.warehouseSources {
		snap.WarehouseSources[k] = v
	}
	return snap
}

// RestoreSnapshot replaces the store's contents with a previously
// captured Snapshot. Used only by the debug load path (catalogstore);
// AST-bearing fields are left nil on restored declarations.
func (s *Store) RestoreSnapshot(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transformsByID = make(map[string]*TransformDecl, len(snap.Transforms))
	s.transformNameToID = make(map[string]string, len(snap.Transforms))
	for i := range snap.Transforms {
		t := snap.Transforms[i]
		s.transformsByID[t.ID] = &t
		s.transformNameToID[t.Name] = t.ID
	}

	s.pipelines = make(map[string]*PipelineDecl, len(snap.Pipelines))
	for i := range snap.Pipelines {
		p := snap.Pipelines[i]
		s.pipelines[p.Name] = &p
	}

	s.connectors = make(map[string]*KafkaConnectorMeta, len(snap.Connectors))
	for i := range snap.Connectors {
		c := snap.Connectors[i]
		s.connectors[c.Name] = &c
	}

	s.predicates = make(map[string]*PredicateDecl, len(snap.Predicates))
	for i := range snap.Predicates {
		p := snap.Predicates[i]
		s.predicates[p.Name] = &p
	}

	s.models = make(map[string]*ModelDecl, len(snap.Models))
	for i := range snap.Models {
		m := snap.Models[i]
		s.models[m.Name] = &m
	}

	s.pythons = make(map[string]*PythonDecl, len(snap.Pythons))
	for i := range snap.Pythons {
		py := snap.Pythons[i]
		s.pythons[py.Name] = &py
	}

	s.warehouseSources = make(map[string]WarehouseSourceDec, len(snap.WarehouseSources))
	for k, v := range snap.WarehouseSources {
		s.warehouseSources[k] = v
	}
}
