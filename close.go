package celldb

// Close marks the DB closed. Uncommitted changes are discarded; Close does
// not commit. Closing twice is a no-op.
func (db *DB) Close() error {
	if db == nil {
		return nil
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return nil
	}
	db.closed = true
	if db.changes != db.clean {
		db.opts.logger.Warn("closing with uncommitted changes", "samples", db.st.Len())
	}
	return nil
}
