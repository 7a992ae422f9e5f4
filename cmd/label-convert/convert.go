package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/label-convert/internal/blobstore"
	"github.com/pdiddy/label-convert/internal/upload"
	"github.com/pdiddy/label-convert/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Send a PDF and an XLSX to the conversion server and save the result",
	Long: `Convert posts the label PDF and the order spreadsheet as one multipart
request (parts "pdf" and "xlsx") and saves the returned PDF. Both files are
required; nothing is sent if either is missing. A failed conversion is not
retried.`,
	Args: cobra.NoArgs,
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().String("pdf", "", "PDF file with the shipping labels")
	convertCmd.Flags().String("xlsx", "", "XLSX spreadsheet with the orders")
	convertCmd.Flags().StringP("output", "o", types.DefaultOutput, "path to save the converted PDF")
	convertCmd.Flags().String("endpoint", types.DefaultEndpoint, "conversion endpoint URL")
	convertCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default none)")
	convertCmd.Flags().Bool("receipt", false, "write a YAML receipt next to the output")

	bindConvertFlags()

	rootCmd.AddCommand(convertCmd)
}

// bindConvertFlags makes the convert flags the highest-priority source for
// their config keys.
func bindConvertFlags() {
	for _, key := range []string{"output", "endpoint", "timeout", "receipt"} {
		viper.BindPFlag(key, convertCmd.Flags().Lookup(key))
	}
}

// loadUploadConfig assembles the upload settings from flags, config file,
// environment, and secrets.
func loadUploadConfig() types.UploadConfig {
	userAgent := viper.GetString("user_agent")
	if userAgent == "" {
		userAgent = "label-convert/" + version
	}
	return types.UploadConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   viper.GetDuration("timeout"),
			UserAgent: userAgent,
		},
		Endpoint:  viper.GetString("endpoint"),
		AuthToken: authToken(viper.GetString("auth_token")),
		Output:    viper.GetString("output"),
		Receipt:   viper.GetBool("receipt"),
	}
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg := loadUploadConfig()
	pdfPath, _ := cmd.Flags().GetString("pdf")
	xlsxPath, _ := cmd.Flags().GetString("xlsx")

	form, err := buildForm(pdfPath, xlsxPath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	view := upload.NewTerminalView(out)
	reg := blobstore.NewRegistry(upload.Origin(cfg.Endpoint))
	defer reg.Close()

	client := &http.Client{Timeout: cfg.Timeout}
	ctrl, err := upload.NewController(client, cfg, reg, view)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	cmd.SilenceUsage = true

	if _, err := ctrl.Submit(cmd.Context(), form); err != nil {
		return err
	}

	blob, err := view.Save(reg, cfg.Output)
	if err != nil {
		return err
	}

	if cfg.Receipt {
		path := upload.ReceiptPath(cfg.Output)
		if err := upload.WriteReceipt(upload.NewReceipt(form, ctrl.Endpoint(), cfg.Output, blob), path); err != nil {
			return err
		}
		fmt.Fprintf(out, "receipt: %s\n", path)
	}
	return nil
}

// buildForm opens the given paths. An empty path leaves that input unselected.
func buildForm(pdfPath, xlsxPath string) (upload.Form, error) {
	var form upload.Form
	if pdfPath != "" {
		f, err := upload.OpenFile(pdfPath)
		if err != nil {
			return upload.Form{}, err
		}
		form.PDF = f
	}
	if xlsxPath != "" {
		f, err := upload.OpenFile(xlsxPath)
		if err != nil {
			return upload.Form{}, err
		}
		form.XLSX = f
	}
	return form, nil
}
