package crack

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FormatOutput formats search results according to output format
func FormatOutput(response *Response, format string) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(response)
	case "yaml":
		encoder := yaml.NewEncoder(os.Stdout)
		defer encoder.Close()
		encoder.SetIndent(2)
		return encoder.Encode(response)
	case "table":
		return formatTable(response)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func formatTable(response *Response) error {
	switch response.Outcome {
	case "found":
		fmt.Printf("Password found: %q\n", response.Password)
	case "exhausted":
		fmt.Println("Search space exhausted, no password matched.")
	case "cancelled":
		fmt.Println("Search cancelled; progress checkpointed.")
	case "incomplete":
		fmt.Println("Search completed degraded: part of the space was not verified.")
	}

	fmt.Printf("Master key: %s\n", response.MasterKey)
	fmt.Printf("Space:      %s\n", response.Space)
	fmt.Printf("Attempts:   %d of %d indexes (cursor %d) in %v\n",
		response.Attempts, response.Total, response.Cursor, response.Elapsed)
	return nil
}
