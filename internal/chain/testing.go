package chain

// SeedRecords is a test helper that preloads records into the in-memory registry.
func SeedRecords(r Registry, records ...CreditRecord) {
	mem, ok := r.(*memoryRegistry)
	if !ok {
		return
	}
	mem.mu.Lock()
	defer mem.mu.Unlock()
	for _, rec := range records {
		mem.byID[rec.ID] = len(mem.records)
		mem.records = append(mem.records, rec)
	}
}
