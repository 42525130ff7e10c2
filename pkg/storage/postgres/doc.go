// Package postgres implements the analytics repositories on PostgreSQL.
//
// All queries are read-only and go through DB.Reader(), which round-robins
// across read replicas and falls back to the primary. Windows are inclusive
// on both ends and timestamps are unix seconds.
//
//	db, err := postgres.Open(postgres.Config{URL: dsn, MaxConns: 10}, logger)
//	repos := postgres.NewRepositories(db)
//	agg := analytics.NewKpiAggregator(repos, store, logger, metrics)
package postgres
