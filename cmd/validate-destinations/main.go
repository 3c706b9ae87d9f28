package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/marcelsud/leadhub/destinations"
)

/* validate-destinations - Standalone CLI tool to validate destinations.yaml
 * Usage: go run cmd/validate-destinations/main.go [destinations.yaml]
 * Exit codes: 0 = valid, 1 = invalid
 */

func main() {
	file := "destinations.yaml"
	if len(os.Args) > 1 {
		file = os.Args[1]
	}

	fmt.Printf("Validating destinations file: %s\n", file)
	fmt.Println(strings.Repeat("-", 50))

	loader := destinations.NewLoader()
	if err := loader.Load(file); err != nil {
		fmt.Fprintf(os.Stderr, "❌ VALIDATION FAILED\n\n")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	loaded := loader.List()
	fmt.Printf("✓ VALIDATION PASSED\n\n")
	fmt.Printf("Loaded %d destination(s):\n", len(loaded))

	for i, d := range loaded {
		fmt.Printf("\n%d. Destination: %s\n", i+1, d.Name)
		fmt.Printf("   URL:         %s\n", d.URL)
		fmt.Printf("   Active:      %t\n", d.IsActive)
		if len(d.SendFields) == 0 {
			fmt.Printf("   Send Fields: (all)\n")
		} else {
			fmt.Printf("   Send Fields: %s\n", strings.Join(d.SendFields, ", "))
		}
		for _, cf := range d.CustomFields {
			fmt.Printf("   Custom:      %s (%s) = %q\n", cf.Name, cf.Type, cf.DefaultValue)
		}
	}

	fmt.Printf("\n✓ All destinations are valid!\n")
	os.Exit(0)
}
