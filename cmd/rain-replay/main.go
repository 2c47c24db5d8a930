package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/netip"
	"os"
	"strings"
	"text/tabwriter"

	"TrafficRain/internal/app"
	"TrafficRain/internal/engine/protocol"
	"TrafficRain/internal/model"
	"TrafficRain/pkg/pcap"
)

type tally struct {
	in, out, none, fast int
}

func main() {
	// 1. Get pcap file path and local addresses from the command line
	flags := app.RegisterFlags(flag.CommandLine)
	local := flag.String("local", "", "Comma-separated addresses treated as the monitored host.")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: rain-replay [flags] <path_to_pcap_file>\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}
	pcapFilePath := flag.Arg(0)

	// 2. Load configuration
	cfg, closer, err := app.Setup(flags, "rain-replay", false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rain-replay: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	addrs, err := parseAddrs(*local)
	if err != nil {
		slog.Error("invalid -local", "error", err)
		os.Exit(1)
	}

	// 3. Open the capture and classify every frame
	reader, err := pcap.NewReader(pcapFilePath)
	if err != nil {
		slog.Error("failed to open pcap file", "error", err)
		os.Exit(1)
	}
	defer reader.Close()
	slog.Info("reading packets", "file", pcapFilePath, "local_addrs", len(addrs))

	c := protocol.NewClassifier(protocol.NewLocalAddrs(addrs...), nil)
	out := make(chan model.PacketEvent, cfg.Events.Capacity)
	errCh := make(chan error, 1)
	go func() { errCh <- reader.ReadEvents(c, out) }()

	var (
		counts [model.NumProtocols]tally
		total  int
	)
	for ev := range out {
		t := &counts[ev.Protocol]
		switch ev.Direction {
		case model.Inbound:
			t.in++
		case model.Outbound:
			t.out++
		default:
			t.none++
		}
		if ev.Fast {
			t.fast++
		}
		total++
	}
	if err := <-errCh; err != nil {
		slog.Error("replay stopped early", "error", err)
	}

	// 4. Print the summary
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "PROTOCOL\tLANE\tIN\tOUT\tNONE\tFAST\t")
	for _, p := range model.Protocols() {
		t := counts[p]
		if t.in+t.out+t.none == 0 {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t\n", p, p.Lane(), t.in, t.out, t.none, t.fast)
	}
	w.Flush()
	fmt.Printf("\n%d frames, %d flows tracked at end\n", total, c.Flows().Len())
}

func parseAddrs(s string) ([]netip.Addr, error) {
	var out []netip.Addr
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		a, err := netip.ParseAddr(f)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
