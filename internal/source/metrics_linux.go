//go:build linux

package source

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/logship/logshipd/internal/value"
)

func readCPUStats() (*value.Value, error) {
	f, err := os.Open("/proc/stat")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	v := value.NewMap()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "cpu ") {
			continue
		}
		fields := strings.Fields(line)[1:]
		labels := []string{"user", "nice", "system", "idle", "iowait", "irq", "softirq", "steal"}
		for i, label := range labels {
			if i >= len(fields) {
				break
			}
			n, err := strconv.ParseInt(fields[i], 10, 64)
			if err != nil {
				continue
			}
			v.Set(label, value.NewInt(n))
		}
		break
	}
	return v, scanner.Err()
}

func readMemStats() (*value.Value, error) {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	v := value.NewMap()
	wanted := map[string]string{
		"MemTotal:":     "total_kb",
		"MemFree:":      "free_kb",
		"MemAvailable:": "available_kb",
		"SwapTotal:":    "swap_total_kb",
		"SwapFree:":     "swap_free_kb",
	}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		key, ok := wanted[fields[0]]
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			continue
		}
		v.Set(key, value.NewInt(n))
	}
	return v, scanner.Err()
}

func readDiskStats() (*value.Value, error) {
	f, err := os.Open("/proc/diskstats")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var devices []*value.Value
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 14 {
			continue
		}
		name := fields[2]
		if strings.HasPrefix(name, "loop") || strings.HasPrefix(name, "ram") {
			continue
		}
		reads, _ := strconv.ParseInt(fields[3], 10, 64)
		writes, _ := strconv.ParseInt(fields[7], 10, 64)
		dv := value.NewMap()
		dv.Set("device", value.NewString(name))
		dv.Set("reads_completed", value.NewInt(reads))
		dv.Set("writes_completed", value.NewInt(writes))
		devices = append(devices, dv)
	}
	v := value.NewMap()
	v.Set("devices", value.NewList(devices))
	return v, scanner.Err()
}

func readNetStats() (*value.Value, error) {
	f, err := os.Open("/proc/net/dev")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var ifaces []*value.Value
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo <= 2 {
			continue // header lines
		}
		parts := strings.SplitN(scanner.Text(), ":", 2)
		if len(parts) != 2 {
			continue
		}
		name := strings.TrimSpace(parts[0])
		fields := strings.Fields(parts[1])
		if len(fields) < 9 {
			continue
		}
		rxBytes, _ := strconv.ParseInt(fields[0], 10, 64)
		txBytes, _ := strconv.ParseInt(fields[8], 10, 64)
		iv := value.NewMap()
		iv.Set("interface", value.NewString(name))
		iv.Set("rx_bytes", value.NewInt(rxBytes))
		iv.Set("tx_bytes", value.NewInt(txBytes))
		ifaces = append(ifaces, iv)
	}
	v := value.NewMap()
	v.Set("interfaces", value.NewList(ifaces))
	return v, scanner.Err()
}
