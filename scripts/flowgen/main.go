package main

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/google/gopacket/layers"
	"github.com/spf13/pflag"
)

var (
	dstPorts  = []int{443, 23, 25, 110, 993, 143, 1024, 80}
	protocols = []layers.IPProtocol{layers.IPProtocolTCP, layers.IPProtocolUDP, layers.IPProtocolICMPv4}
	keywords  = []string{"tcp", "udp", "icmp"}
)

func main() {
	flowOut := pflag.StringP("flow-log", "f", "sample_flow_log.txt", "Output flow log path (empty to skip)")
	lookupOut := pflag.StringP("lookup", "l", "sample_lookup_table.csv", "Output lookup table path (empty to skip)")
	flowCount := pflag.IntP("records", "n", 100000, "Number of flow log records to generate")
	lookupCount := pflag.IntP("mappings", "m", 10000, "Number of lookup table mappings to generate")
	seed := pflag.Int64("seed", time.Now().UnixNano(), "Random seed")
	pflag.Parse()

	rng := rand.New(rand.NewSource(*seed))

	if *flowOut != "" {
		if err := generateFlowLog(rng, *flowOut, *flowCount); err != nil {
			log.Fatalf("Failed to generate flow log: %v", err)
		}
		log.Printf("Generated %d flow log entries in %s", *flowCount, *flowOut)
	}
	if *lookupOut != "" {
		if err := generateLookupTable(rng, *lookupOut, *lookupCount); err != nil {
			log.Fatalf("Failed to generate lookup table: %v", err)
		}
		log.Printf("Generated %d mappings in %s", *lookupCount, *lookupOut)
	}
}

func randomIP(rng *rand.Rand) string {
	return fmt.Sprintf("%d.%d.%d.%d", rng.Intn(255)+1, rng.Intn(256), rng.Intn(256), rng.Intn(256))
}

// generateFlowLog writes version 2 VPC flow log records.
func generateFlowLog(rng *rand.Rand, path string, count int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	actions := []string{"ACCEPT", "REJECT"}
	const hexDigits = "abcdef0123456789"
	for i := 0; i < count; i++ {
		eni := make([]byte, 8)
		for j := range eni {
			eni[j] = hexDigits[rng.Intn(len(hexDigits))]
		}
		start := time.Now().Unix()
		_, err := fmt.Fprintf(w, "2 123456789012 eni-%s %s %s %d %d %d %d %d %d %d %s OK\n",
			eni, randomIP(rng), randomIP(rng),
			rng.Intn(65535-49152+1)+49152,
			dstPorts[rng.Intn(len(dstPorts))],
			uint8(protocols[rng.Intn(len(protocols))]),
			rng.Intn(21)+5,
			rng.Intn(18001)+2000,
			start, start+int64(rng.Intn(51)+10),
			actions[rng.Intn(len(actions))])
		if err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Close()
}

// generateLookupTable writes random (dstport, protocol) to tag mappings.
func generateLookupTable(rng *rand.Rand, path string, count int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	const tagChars = "abcdefghijklmnopqrstuvwxyz0123456789"
	w := csv.NewWriter(f)
	if err := w.Write([]string{"dstport", "protocol", "tag"}); err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		tag := make([]byte, 4)
		for j := range tag {
			tag[j] = tagChars[rng.Intn(len(tagChars))]
		}
		row := []string{strconv.Itoa(rng.Intn(65535) + 1), keywords[rng.Intn(len(keywords))], string(tag)}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}
