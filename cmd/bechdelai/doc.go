// Package main hosts the bechdelai CLI entrypoint and command graph.
//
// The Cobra command tree exposes every analysis building block: movie
// metadata lookups (TMDB, IMDb, Allociné, Wikipedia), the bechdeltest.com
// ratings mirror, subtitle, audio and vision pipelines, LLM questions, the
// HTTP API server and report publication. Configuration resolution and
// logging setup live here so subcommands only wire internal packages.
//
// Keep this package lean: add functionality to the internal packages first,
// then surface it through a command or flag here.
package main
