// Package stackctl manages a Docker Compose stack made of a Next.js web
// frontend and an agent API.
//
// # Overview
//
// The stackctl CLI provides:
//   - .env provisioning from committed .env.example templates
//   - production and development lifecycle over docker compose
//   - log streaming with a running-services hint
//   - cleanup of containers, volumes and unused Docker data
//   - status and pre-flight checks
//
// # Installation
//
//	go install github.com/blackwell-systems/stackctl/cmd/stackctl@latest
//
// # Quick Start
//
//	stackctl setup
//	stackctl prod
//	stackctl logs web
//	stackctl stop
//
// # Services
//
// The compose files publish two services:
//   - web: Next.js frontend on port 3000
//   - agent: agent API on port 2024
//
// Both ports are exported to compose as WEB_PORT and AGENT_PORT.
//
// # Configuration
//
// Settings resolve flags > STACKCTL_* env > stackctl.yaml > defaults.
// Run `stackctl config show` to see the effective values.
package stackctl
