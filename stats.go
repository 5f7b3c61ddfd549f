package playdb

// Stats holds process-local diagnostic counters. They are not persisted;
// a reopened tree starts from zero apart from TreeHeight.
type Stats struct {
	Reads        uint64 // Records loaded from the manager (nodes, payloads, header)
	Writes       uint64 // Node and header records stored
	Splits       uint64 // Node splits, including root growth
	Nodes        uint64 // Nodes created
	Adjustments  uint64 // Payloads overwritten by re-inserting an existing key
	QueryResults uint64 // Successful queries
	Data         uint64 // Payload records created
	TreeHeight   int    // Levels, 1 for a lone leaf root
}
