package types

// Version is the canonical project version.
// All components (CLI, manifest journal, adapter events) share this
// version per the lockstep versioning policy.
const Version = "0.3.0"

// EventSchemaVersion is the schema version stamped on adapter events and
// manifest journal entries. Bumped independently of Version only when a
// serialized shape changes.
const EventSchemaVersion = "1.0.0"
