// CampusLens - Academic Analytics and Course Recommendations
// Copyright 2026 CampusLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campuslens/campuslens

// Package recommend implements a hybrid course recommendation engine.
//
// # Architecture
//
// The engine blends two signal sources to produce personalized course
// recommendations for students:
//
//   - Content-Based Filtering: TF-IDF similarity between a query built from
//     the student's interests and department and each course's textual
//     profile, pulled toward courses the student has already completed.
//   - Collaborative Filtering: courses liked by students with similar
//     rating histories over shared courses.
//
// Blended candidates pass through prerequisite and difficulty filters and a
// popularity/level adjustment before ranking.
//
// # Design Principles
//
//   - Deterministic: identical inputs produce identical ordered output.
//     Score accumulation iterates courses in identifier order, cohort
//     sampling uses a fixed seed, and no randomness exists at inference time.
//   - Immutable snapshots: training produces a complete Model value that is
//     swapped in atomically. Recommendation and evaluation calls observe a
//     consistent snapshot, making concurrent reads trivially safe.
//   - Auditable: operations are logged with structured fields and request IDs.
//
// # Training
//
// Train rebuilds everything from the three source tables on every call: the
// fitted vectorizer, the course similarity matrix, the student-course
// interaction matrix, and the derived popularity and difficulty scores. There
// are no incremental updates; at the target scale (hundreds of courses and
// students) a full rebuild is cheap.
//
// # Usage
//
//	engine := recommend.NewEngine(recommend.DefaultConfig(), logger)
//
//	stats, err := engine.Train(ctx, dataset)
//
//	resp, err := engine.Recommend(ctx, recommend.Request{
//	    StudentID: "S1042",
//	    Limit:     5,
//	})
//
// # Thread Safety
//
// The engine is safe for concurrent use. Training installs a new snapshot
// under an exclusive lock; recommendation and evaluation take a shared lock
// only long enough to read the current snapshot pointer.
package recommend
