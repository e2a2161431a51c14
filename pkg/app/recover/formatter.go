package recover

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// FormatOutput formats recovery results according to output format
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
	case OutcomePlainOnly:
		fmt.Println("No encrypted keys found; plain keys only.")
	case OutcomeLocked:
		fmt.Println("Encrypted keys remain locked; no passphrase was recovered.")
	case OutcomeUnlocked:
		if response.Password != "" {
			fmt.Printf("Passphrase recovered: %q\n", response.Password)
		}
		fmt.Printf("Unlocked %d encrypted keys", response.Unlocked)
		if response.Skipped > 0 {
			fmt.Printf(" (%d skipped)", response.Skipped)
		}
		fmt.Println()
	}

	if len(response.Keys) == 0 {
		fmt.Println("No private keys recovered.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "OFFSET\tADDRESS\tWIF\tCOMPRESSED\n")
	for _, key := range response.Keys {
		fmt.Fprintf(w, "%d\t%s\t%s\t%v\n", key.Offset, orDash(key.Address), orDash(key.WIF), key.Compressed)
	}
	w.Flush()

	fmt.Printf("\nRecovered %d private keys from %s\n", len(response.Keys), response.Source)
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
