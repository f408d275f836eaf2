/*
Package ports defines the driven ports (interfaces) of the CineBrain engine.

These interfaces decouple the orchestration core from external implementations,
allowing the engine to work with various generation backends, memory services,
tool catalogues and checkpoint stores.

# Key Interfaces

  - Generator: text generation, optionally constrained to a JSON schema.
  - Classifier: maps a conversation onto a domain.Route.
  - MemoryService: long-term facts keyed by user id.
  - ToolExecutor / StepExecutor: run a single tool, or a whole plan step.
  - MediaGenerator: video and audio synthesis.
  - CheckpointStore: persists and loads session checkpoints.
  - DistributedLocker: distributed locking for concurrent session access.
*/
package ports
