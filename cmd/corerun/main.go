// cmd/corerun/main.go - standalone parameter-snapshot inspector
//
// A self-contained tool: it never imports the core's package main (a main package
// cannot be imported), so it carries its own minimal decode of the
// snapshot document instead of reusing persistence.go's types.

package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

type snapshotDoc struct {
	Params map[string]float32 `yaml:"params"`
	MIDI   []struct {
		Param   string  `yaml:"param"`
		Channel int     `yaml:"channel"`
		CC      int     `yaml:"cc"`
		Min     float32 `yaml:"min"`
		Max     float32 `yaml:"max"`
	} `yaml:"midi_learn"`
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: corerun [options] snapshot.yaml\n\nInspects a parameter-snapshot YAML document.\n\nOptions:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	b, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	var doc snapshotDoc
	if err := yaml.Unmarshal(b, &doc); err != nil {
		fmt.Fprintf(os.Stderr, "error: invalid snapshot: %v\n", err)
		os.Exit(1)
	}

	names := make([]string, 0, len(doc.Params))
	for name := range doc.Params {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Printf("%d parameters, %d MIDI-learn entries\n\n", len(names), len(doc.MIDI))
	for _, name := range names {
		fmt.Printf("  %-24s %g\n", name, doc.Params[name])
	}
	if len(doc.MIDI) > 0 {
		fmt.Println("\nMIDI learn:")
		for _, e := range doc.MIDI {
			fmt.Printf("  %-24s ch=%d cc=%d range=[%g,%g]\n", e.Param, e.Channel, e.CC, e.Min, e.Max)
		}
	}
}
