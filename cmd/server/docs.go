package main

//go:generate swag init -g cmd/server/main.go -o docs

// @title           Trust & Fairness Scoring API
// @version         0.1.0
// @description     Alpha scores, sybil risk gating, and fairness-adjusted reward payouts.
// @host            localhost:8080
// @BasePath        /
// @schemes         http
