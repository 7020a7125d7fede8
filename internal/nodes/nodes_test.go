package nodes

import (
	"github.com/flowstack/flowstack/internal/engine"
	"github.com/flowstack/flowstack/internal/store"
	"github.com/flowstack/flowstack/pkg/schema"
)

// execInput builds an ExecutionInput the way the workflow executor does.
func execInput(key string, typ schema.NodeType, config, ctxData map[string]any) engine.ExecutionInput {
	return engine.ExecutionInput{
		Run:     &store.Run{ID: "run-1", DefinitionID: "def-1", Status: schema.RunStatusRunning},
		Node:    &store.Node{ID: "node-" + key, DefinitionID: "def-1", Key: key, Name: key, Type: typ, Config: config},
		Context: engine.FromPayload(ctxData),
		Config:  config,
	}
}
