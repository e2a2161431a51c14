package scan

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// FormatOutput formats scan results according to output format
func FormatOutput(response *Response, format string) error {
	switch format {
	case "json":
		return formatJSON(response)
	case "yaml":
		return formatYAML(response)
	case "table":
		return formatTable(response)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// formatTable formats results as a table
func formatTable(response *Response) error {
	total := len(response.RawKeys) + len(response.PublicKeys) + len(response.EncryptedKeys) + len(response.MasterKeys)
	if total == 0 {
		fmt.Println("No key records found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	if len(response.RawKeys) > 0 {
		fmt.Fprintf(w, "KIND\tOFFSET\tADDRESS\tWIF\tVALID\n")
		for _, key := range response.RawKeys {
			fmt.Fprintf(w, "key\t%d\t%s\t%s\t%v\n", key.Offset, orDash(key.Address), orDash(key.WIF), key.ValidCurve)
		}
	}
	for _, key := range response.PublicKeys {
		fmt.Fprintf(w, "pubkey\t%d\t%s\t\t\n", key.Offset, orDash(key.Address))
	}
	for _, key := range response.EncryptedKeys {
		paired := "unpaired"
		if key.PublicKey != "" {
			paired = "paired"
		}
		fmt.Fprintf(w, "ckey\t%d\t%s\t\t\n", key.Offset, paired)
	}
	for _, key := range response.MasterKeys {
		fmt.Fprintf(w, "mkey\t%d\titerations=%d\t\t\n", key.Offset, key.Iterations)
	}
	w.Flush()

	fmt.Printf("\nScanned %d bytes in %v: %d keys, %d public keys, %d encrypted keys, %d master keys\n",
		response.BytesScanned, response.ScanTime,
		len(response.RawKeys), len(response.PublicKeys), len(response.EncryptedKeys), len(response.MasterKeys))
	if response.Truncated {
		fmt.Println("Warning: scan was truncated by an unreadable region or end of stream")
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// formatJSON formats results as JSON
func formatJSON(response *Response) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}

// formatYAML formats results as YAML
func formatYAML(response *Response) error {
	encoder := yaml.NewEncoder(os.Stdout)
	defer encoder.Close()
	encoder.SetIndent(2)
	return encoder.Encode(response)
}
