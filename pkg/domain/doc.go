/*
Package domain contains the core domain models of the CineBrain orchestration engine.

It defines the conversation state threaded through every stage, the plan and step
lifecycle, the closed routing variant, the partial-update reducers, and the durable
checkpoint record. The package is kept pure and free of external dependencies like
I/O or persistence.

# Key Entities

  - ConversationState: the per-session record (messages, plan, observations, outputs).
  - Update: a partial update returned by a stage and merged with Apply.
  - Plan / Step: the bounded multi-step plan and its per-step status.
  - Route / Workflow: the closed set of downstream capabilities.
  - Checkpoint: a snapshot of state plus the stage to resume into.
  - Outcome: what a host shell receives after Run or Resume.
*/
package domain
