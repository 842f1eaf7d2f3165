package main

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/tklauser/go-sysconf"
)

type cpuClock struct {
	elapsed time.Time
	utime   int64
	stime   int64
	ok      bool
}

//
// Initialize the clock
//

func (c *cpuClock) start() {

	c.elapsed = time.Now()
	c.utime, c.stime, c.ok = getCPUInfo()
}

func (s *session) printStatistics() {

	var mem runtime.MemStats

	fmt.Fprintln(s.out)
	s.printCpuUsage()

	runtime.GC()
	runtime.ReadMemStats(&mem)

	fmt.Fprintf(s.out, "%dMB memory used\n", convertToMB(mem.HeapAlloc))

	n := s.it.Statements()
	fmt.Fprintf(s.out, "%d %s executed\n", n, pluralize("statement", n))
}

func (s *session) printCpuUsage() {

	elapsed := time.Since(s.clock.elapsed)

	utime, stime, ok := getCPUInfo()
	if !ok || !s.clock.ok {
		fmt.Fprintf(s.out, "CPU Usage: elapsed = %s\n",
			formatCPUTime(int64(elapsed.Seconds())))
		return
	}

	fmt.Fprintf(s.out, "CPU Usage: elapsed = %s / user = %s / system = %s\n",
		formatCPUTime(int64(elapsed.Seconds())),
		formatCPUTime(utime-s.clock.utime), formatCPUTime(stime-s.clock.stime))
}

func formatCPUTime(t int64) string {

	var h, m int64

	if t >= 3600 {
		h = t / 3600
		t = t % 3600
	}

	if t >= 60 {
		m = t / 60
		t = t % 60
	}

	return fmt.Sprintf("%02d:%02d:%02d", h, m, t)
}

//
// User and system CPU seconds from /proc.  ok is false where there is
// no /proc, in which case we only report elapsed time
//

func getCPUInfo() (utime, stime int64, ok bool) {

	clktck, err := sysconf.Sysconf(sysconf.SC_CLK_TCK)
	if err != nil || clktck <= 0 {
		return 0, 0, false
	}

	contents, err := os.ReadFile("/proc/self/stat")
	if err != nil {
		return 0, 0, false
	}

	return parseProcStat(string(contents), clktck)
}

//
// Fields 14 and 15 of /proc/self/stat are utime and stime in clock
// ticks.  The command name in field 2 may contain blanks, so count
// from the closing parenthesis
//

func parseProcStat(stat string, clktck int64) (utime, stime int64, ok bool) {

	if i := strings.LastIndexByte(stat, ')'); i >= 0 {
		stat = stat[i+1:]
	}

	fields := strings.Fields(stat)
	if len(fields) < 13 {
		return 0, 0, false
	}

	utime, err := strconv.ParseInt(fields[11], 10, 64)
	if err != nil {
		return 0, 0, false
	}

	stime, err = strconv.ParseInt(fields[12], 10, 64)
	if err != nil {
		return 0, 0, false
	}

	return utime / clktck, stime / clktck, true
}

func convertToMB(num uint64) uint64 {

	return num / 1024 / 1024
}

func pluralize(str string, num int64) string {

	//
	// Oddity: 0 is considered plural
	//

	if num != 1 {
		return str + "s"
	}

	return str
}
