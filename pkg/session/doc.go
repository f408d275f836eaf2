/*
Package session implements session management and persistence orchestration.

It serializes turns of the same session within a process (reference-counted
mutexes) and, optionally, across replicas through a ports.DistributedLocker,
while delegating checkpoint storage to a ports.CheckpointStore.
*/
package session
