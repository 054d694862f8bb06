// Package harness provides conformance testing for the debounce policy.
//
// Scenarios are YAML timelines executed against a fake clock: each step
// either mutates the state document, advances time, or triggers a manual
// flush. Every flush the synchronizer performs is recorded as a trace
// event, and the resulting trace is compared against a golden file. This
// pins the externally observable contract - when flushes fire and what
// state they carry - in a form that is reviewable as data.
//
// # Scenario Format
//
//	name: scenario_name
//	description: "What this scenario validates"
//	config:
//	  delay: 500ms
//	  max_wait: 2s
//	  immediate: false
//	steps:
//	  - mutate: { theme: dark }
//	  - advance: 400ms
//	  - flush: true
//
// Each step carries exactly one of mutate, advance, or flush. Durations use
// Go syntax ("500ms", "2s"). The state document is a free-form map merged
// key by key on each mutate.
package harness
