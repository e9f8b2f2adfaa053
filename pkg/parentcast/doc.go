// Package parentcast provides the core service for an audio-journaling
// application: casts of dated entries whose audio lives in a single object
// store bucket, with soft delete and restore implemented as key relocations
// into and out of a per-owner trash namespace.
//
// The service composes a Repository (row persistence) and a BlobStore
// (object storage) through its public interfaces; implementations for
// memory and Postgres repositories and for memory and S3 blob stores are
// provided under subpackages. The two stores are never updated
// transactionally together: drift between them is expected and repaired by
// the ReconcileOrphans and NormalizePaths operations.
package parentcast
