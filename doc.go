// Package janus routes LLM work across interchangeable providers under a
// shared spending ceiling.
//
// The module is organized as independent subpackages layered leaves-first:
//
//   - catalog: routable model configurations, quality tiers, freshness status
//   - cost: pure cost estimation from token counts and per-model prices
//   - budget: process-scoped spending ledger
//   - rating: peer-rating log and the tier-learning recompute
//   - provider: unified completion client interface and provider registry
//   - parser: tolerant JSON extraction from free-text model output
//   - router: budget-aware candidate selection with ordered fallbacks
//   - council: multi-advisor deliberation with budget fitting and synthesis
//   - executor: sandboxed execution of model-proposed action plans
//   - store: file-backed catalog/rating/snapshot/artifact persistence
//   - truncate: token-budget text truncation for prompt building
//
// # Quick Start
//
// Routing a task:
//
//	cat, _ := st.ReadCatalog()
//	r := router.New(cat, ledger, router.WithCredentials(creds))
//	dec, err := r.Route("summarize the release notes", router.CategoryGeneral, router.Constraints{})
//
// Running a council deliberation:
//
//	orc := council.New(r, pool, ledger, st, cfg.Council)
//	delib, err := orc.Deliberate(ctx, task, priorContext)
//
// Executing a sandboxed plan:
//
//	sb := executor.New(r, pool, ledger, st, executor.DefaultPolicy(repoRoot), executor.Config{})
//	res, err := sb.Execute(ctx, goal, priorContext)
//
// # Design Philosophy
//
//   - Routing never fails for "no perfect candidate": filters that would empty
//     the candidate set are skipped and the compromise is recorded as a note.
//   - Budget is checked before calls and charged after them; only actually
//     incurred cost is deducted.
//   - Model output is treated as untrusted text: JSON is extracted tolerantly
//     for advice, but executor plans are validated strictly before anything
//     touches the filesystem.
package janus
