/*
Package dsl provides a fluent builder for the stage graph executed by the engine.

A graph is a set of named stages plus their outgoing transitions: a static edge
(Go), a conditional switch with a mandatory default (Switch/Case/Default), or a
declared set of explicit jump targets used by stages that return domain.Goto.
Build validates that every target exists and every switch is total.

Example usage:

	b := dsl.New()
	b.Start("router")

	b.Add("router", route).
		Switch(byWorkflow).
		Case("video", "video").
		Default(domain.StageEnd)

	b.Add("video", video).Go("store_memory")
	b.Add("store_memory", store).Go("router")

	g, err := b.Build()
*/
package dsl
