// Package main (cmd/httpserver) runs the account registry server.
//
// On start the server either deploys a new registry (its token contracts,
// ticket issuer, logic and proxy) into a fresh in-process environment, or
// restores the environment from a checkpoint held in storage. It then serves
// the registry API until SIGINT or SIGTERM, and stores a final checkpoint on
// the way out when storage is configured.
//
// Storage backends are given as URIs; more than one makes a replicated
// backend that writes to all and reads from the first that has the content:
//
//	file:///var/lib/registry
//	s3://bucket/prefix?region=us-east-1
//	ipfs://localhost:5001/
//	vault://token@vault.internal:8200/secret/account-registry
//
// Example, deploying a new registry:
//
//	registry-server --owner=0x1000000000000000000000000000000000000001 \
//	    --token="Test Dollar:TUSD" \
//	    --storage=file:///tmp/registry \
//	    --listen-addr=0.0.0.0:8080
//
// Example, restoring from a checkpoint:
//
//	registry-server --storage=file:///tmp/registry \
//	    --restore-checkpoint=2c26b46b68ffc68ff99b453c1d30413413422d706483bfa0f98a5e886266e7ae
package main
