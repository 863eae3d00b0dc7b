package sheet

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	platformgrpc "github.com/louisbranch/traitsheet/internal/platform/grpc"
	"github.com/louisbranch/traitsheet/internal/platform/timeouts"
	sheetservice "github.com/louisbranch/traitsheet/internal/services/sheet/api/grpc/sheet"
	server "github.com/louisbranch/traitsheet/internal/services/sheet/app"
	"github.com/louisbranch/traitsheet/internal/services/sheet/domain/notation"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func runServe(ctx context.Context, cfg Config, args []string, _ io.Writer) error {
	fs := newFlagSet("serve")
	port := fs.Int("port", cfg.Port, "port to listen on")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return server.Run(ctx, *port, cfg.DBPath)
}

// runRemoteParse sends one asset line to a sheet server and prints the
// parsed pieces the same way parse does.
func runRemoteParse(ctx context.Context, cfg Config, args []string, out io.Writer) error {
	fs := newFlagSet("remote-parse")
	addr := fs.String("addr", cfg.Addr, "sheet server address")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("remote-parse: %w", err)
	}
	text := strings.Join(fs.Args(), " ")
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("remote-parse: notation is required")
	}

	conn, err := platformgrpc.DialWithHealth(ctx, *addr, sheetservice.ServiceName, timeouts.GRPCDial, log.Printf)
	if err != nil {
		return fmt.Errorf("remote-parse: %w", err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			log.Printf("close sheet connection: %v", err)
		}
	}()

	callCtx, cancel := context.WithTimeout(ctx, timeouts.GRPCRequest)
	defer cancel()
	resp, err := sheetservice.NewSheetServiceClient(conn).ParseAsset(callCtx, wrapperspb.String(text))
	if err != nil {
		return fmt.Errorf("remote-parse: %w", err)
	}
	a, err := notation.Of(resp.GetFields()["notation"].GetStringValue())
	if err != nil {
		return fmt.Errorf("remote-parse: server returned %w", err)
	}
	writeValue(out, notation.AssetValue{Asset: a})
	return nil
}
