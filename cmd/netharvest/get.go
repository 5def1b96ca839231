// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/meshintel/netharvest/internal/extract"
	"github.com/meshintel/netharvest/internal/netutil"
	"github.com/meshintel/netharvest/internal/store"
	"github.com/meshintel/netharvest/internal/transport"
	"github.com/meshintel/netharvest/pkg/types"
)

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Run one table extraction against a device",
	Long: `Get connects to a device, loads the named table from a YAML definition
file, issues the table's RPC, and prints the extracted records.

By default the output is normalized: one uniform record per item, with
every declared field present (missing fields are explicit nulls). Pass
--response-type items to get the raw item/pairs structure instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		host, _ := cmd.Flags().GetString("host")
		port, _ := cmd.Flags().GetInt("port")
		user, _ := cmd.Flags().GetString("user")
		passwd, _ := cmd.Flags().GetString("passwd")
		table, _ := cmd.Flags().GetString("table")
		file, _ := cmd.Flags().GetString("file")
		dir, _ := cmd.Flags().GetString("path")
		responseType, _ := cmd.Flags().GetString("response-type")
		asJSON, _ := cmd.Flags().GetBool("json")
		savePath, _ := cmd.Flags().GetString("save")
		logfile, _ := cmd.Flags().GetString("logfile")
		retries, _ := cmd.Flags().GetInt("retries")

		if port == 0 {
			port = cfg.Transport.Port
		}
		user = secretDefault("device-username", user)
		if user == "" {
			user = os.Getenv("USER")
		}
		passwd = secretDefault("device-password", passwd)
		if dir == "" {
			dir = cfg.Extract.SchemaDir
		}
		if responseType == "" {
			responseType = string(cfg.Extract.ResponseType)
		}
		if retries < 0 {
			retries = cfg.Extract.ConnectRetries
		}
		if savePath == "" {
			savePath = cfg.Store.Path
		}

		rt, err := types.ParseResponseType(responseType)
		if err != nil {
			return err
		}

		progress, closeLog, err := progressWriter(logfile)
		if err != nil {
			return err
		}
		defer closeLog()

		timeout := cfg.Transport.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}

		var dialer transport.Dialer = &transport.NETCONFDialer{Timeout: timeout}
		if retries > 0 {
			dialer = &netutil.RetryingDialer{Inner: dialer, Retries: retries, Progress: progress}
		}

		params := extract.Params{
			Endpoint:     transport.Endpoint{Host: host, Port: port},
			Credentials:  transport.Credentials{Username: user, Password: passwd},
			Table:        table,
			File:         file,
			Dir:          dir,
			ResponseType: rt,
		}

		result, err := extract.Run(cmd.Context(), dialer, params, progress)
		if err != nil {
			return err
		}

		if savePath != "" {
			s, err := store.Open(savePath)
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.SaveResult(result); err != nil {
				return err
			}
			fmt.Fprintf(progress, "saved %d records to %s\n", result.Count, savePath)
		}

		if asJSON {
			return extract.FormatJSON(result, os.Stdout)
		}
		extract.FormatTable(result, os.Stdout)
		return nil
	},
}

// progressWriter returns stderr, teed to logfile when one is given.
func progressWriter(logfile string) (io.Writer, func(), error) {
	if logfile == "" {
		return os.Stderr, func() {}, nil
	}
	f, err := os.OpenFile(logfile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening logfile %s: %w", logfile, err)
	}
	return io.MultiWriter(os.Stderr, f), func() { f.Close() }, nil
}

func init() {
	getCmd.Flags().String("host", "", "device hostname or IP address")
	getCmd.Flags().Int("port", 0, "NETCONF port (default 830)")
	getCmd.Flags().String("user", "", "login username (default: device-username secret, then $USER)")
	getCmd.Flags().String("passwd", "", "login password (default: device-password secret, then ssh-agent)")
	getCmd.Flags().String("table", "", "name of the table to extract")
	getCmd.Flags().String("file", "", "YAML definition file declaring the table")
	getCmd.Flags().String("path", "", "directory holding the definition file (default: configured schema dir)")
	getCmd.Flags().String("response-type", "", "output shape: records or items (default records)")
	getCmd.Flags().Bool("json", false, "output the result as JSON")
	getCmd.Flags().String("save", "", "sqlite database file to append results to")
	getCmd.Flags().String("logfile", "", "file receiving a copy of progress output")
	getCmd.Flags().Int("retries", -1, "extra connect attempts on dial failure")

	getCmd.MarkFlagRequired("host")
	getCmd.MarkFlagRequired("table")
	getCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(getCmd)
}
