package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"

	"TrafficRain/internal/testutil"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

const localIP = "192.168.1.10"

var remotes = []string{"1.1.1.1", "8.8.8.8", "142.250.74.46", "104.16.132.229"}

// frameGen produces one or more frames starting at ts.
type frameGen func(r *rand.Rand, ts time.Time) []stamped

type stamped struct {
	ts   time.Time
	data []byte
}

func main() {
	outputFile := flag.String("o", "test.pcap", "Output pcap file path")
	packetCount := flag.Int("c", 1000, "Approximate number of frames to generate")
	seed := flag.Uint64("seed", 1, "Random seed")
	flag.Parse()

	f, err := os.Create(*outputFile)
	if err != nil {
		slog.Error("failed to create output file", "error", err)
		os.Exit(1)
	}
	defer f.Close()

	pcapWriter := pcapgo.NewWriter(f)
	if err := pcapWriter.WriteFileHeader(65536, layers.LinkTypeEthernet); err != nil {
		slog.Error("failed to write pcap header", "error", err)
		os.Exit(1)
	}

	r := rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15))
	gens := []frameGen{dnsExchange, httpsHandshake, bulkTCP, quicBurst, ntpQuery, arpProbe, pingPair}

	slog.Info("generating frames", "count", *packetCount, "file", *outputFile)
	ts := time.Unix(1700000000, 0)
	written := 0
	for written < *packetCount {
		for _, fr := range gens[r.IntN(len(gens))](r, ts) {
			ci := gopacket.CaptureInfo{Timestamp: fr.ts, CaptureLength: len(fr.data), Length: len(fr.data)}
			if err := pcapWriter.WritePacket(ci, fr.data); err != nil {
				slog.Error("failed to write packet", "error", err)
				os.Exit(1)
			}
			written++
		}
		ts = ts.Add(time.Duration(r.IntN(50)+1) * time.Millisecond)
	}
	fmt.Printf("generated %d frames into %s\n", written, *outputFile)
}

func remote(r *rand.Rand) string { return remotes[r.IntN(len(remotes))] }

func ephemeral(r *rand.Rand) uint16 { return uint16(r.IntN(65535-49152) + 49152) }

func dnsExchange(r *rand.Rand, ts time.Time) []stamped {
	port := ephemeral(r)
	rtt := time.Duration(r.IntN(300)) * time.Millisecond
	return []stamped{
		{ts, testutil.UDP(localIP, port, "8.8.8.8", 53, 40)},
		{ts.Add(rtt), testutil.UDP("8.8.8.8", 53, localIP, port, 120+r.IntN(400))},
	}
}

func httpsHandshake(r *rand.Rand, ts time.Time) []stamped {
	dst, port := remote(r), ephemeral(r)
	return []stamped{
		{ts, testutil.TCP(localIP, port, dst, 443, testutil.TCPFlags{SYN: true}, 0)},
		{ts.Add(20 * time.Millisecond), testutil.TCP(dst, 443, localIP, port, testutil.TCPFlags{SYN: true, ACK: true}, 0)},
		{ts.Add(21 * time.Millisecond), testutil.TCP(localIP, port, dst, 443, testutil.TCPFlags{ACK: true}, 0)},
	}
}

func bulkTCP(r *rand.Rand, ts time.Time) []stamped {
	dst, port := remote(r), ephemeral(r)
	dstPort := []uint16{80, 22, 8080}[r.IntN(3)]
	out := make([]stamped, 0, 8)
	for i := range 8 {
		out = append(out, stamped{
			ts.Add(time.Duration(i) * time.Millisecond),
			testutil.TCP(dst, dstPort, localIP, port, testutil.TCPFlags{ACK: true, PSH: true}, 1000+r.IntN(400)),
		})
	}
	return out
}

func quicBurst(r *rand.Rand, ts time.Time) []stamped {
	dst, port := remote(r), ephemeral(r)
	out := make([]stamped, 0, 6)
	for i := range 6 {
		out = append(out, stamped{
			ts.Add(time.Duration(i*5) * time.Millisecond),
			testutil.UDP(dst, 443, localIP, port, 1200),
		})
	}
	return out
}

func ntpQuery(r *rand.Rand, ts time.Time) []stamped {
	return []stamped{{ts, testutil.UDP(localIP, 123, "162.159.200.1", 123, 48)}}
}

func arpProbe(_ *rand.Rand, ts time.Time) []stamped {
	return []stamped{{ts, testutil.ARPRequest("192.168.1.1", localIP)}}
}

func pingPair(r *rand.Rand, ts time.Time) []stamped {
	dst := remote(r)
	return []stamped{
		{ts, testutil.ICMPv4Echo(localIP, dst)},
		{ts.Add(15 * time.Millisecond), testutil.ICMPv4Echo(dst, localIP)},
	}
}
