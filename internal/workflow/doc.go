// Package workflow advances wizard sessions through the configured
// processing stages.
//
// The Manager polls the session store, reclaims work left mid-flight by a
// previous process, and feeds runnable sessions into registered stage
// handlers (analysis, topic generation, content generation, export) while
// capturing progress and failure metadata. Stages that stop at an access
// gate are parked back at the previous step rather than marked failed.
//
// Add new lifecycle stages by extending StageSet, updating the session
// status enums, and teaching the manager how to transition sessions; this
// package is the authoritative home for that coordination logic.
package workflow
