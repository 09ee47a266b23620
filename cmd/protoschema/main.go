package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"github.com/Yewatermelon/FPSGame/internal/net/proto"
)

// protoschema emits JSON schemas for the websocket wire messages so client
// implementations can validate against the server's layout.
func main() {
	var outDir string
	flag.StringVar(&outDir, "out", "", "directory to write the JSON schemas")
	flag.Parse()

	if outDir == "" {
		fmt.Fprintln(os.Stderr, "--out is required")
		os.Exit(1)
	}

	for name, schema := range buildSchemas() {
		if err := writeSchema(filepath.Join(outDir, name+".schema.json"), schema); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write %s schema: %v\n", name, err)
			os.Exit(1)
		}
	}
}

func buildSchemas() map[string]*jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
	}
	schemas := map[string]*jsonschema.Schema{
		"client_message": reflector.Reflect(new(proto.ClientMessage)),
		"state":          reflector.Reflect(new(proto.StateMessage)),
		"keyframe":       reflector.Reflect(new(proto.KeyframeMessage)),
		"keyframe_nack":  reflector.Reflect(new(proto.KeyframeNack)),
		"join_response":  reflector.Reflect(new(proto.JoinResponse)),
	}
	for name, schema := range schemas {
		schema.Title = name
		schema.Description = fmt.Sprintf("Wire layout for the %q message, protocol version %d", name, proto.Version)
	}
	return schemas
}

func writeSchema(outPath string, schema *jsonschema.Schema) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create schema directory: %w", err)
	}

	tmpPath := outPath + ".tmp"
	if err := os.WriteFile(tmpPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp schema: %w", err)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("replace schema: %w", err)
	}

	return nil
}
