/*
	Copyright (c) 2023 Adrian Batzill
	Distributable under the terms of The "BSD New" License
	that can be found in the LICENSE file, herein included
	as part of this header.

	logging.go: Initialize logrus, watch log file size and rotate, delete old logs

*/

package main

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/ricochet2200/go-disk-usage/du"
	"github.com/sirupsen/logrus"
)

const (
	debugLogFile     = "linkdecoder.log"
	maxLogGeneration = 9
	maxLogSize       = 10 * 1024 * 1024
	minFreeBytes     = 50 * 1024 * 1024
	logWatchInterval = 30 * time.Second
)

// logFile writes the daemon log to dir/linkdecoder.log and stdout, rotating
// it into numbered generations.
type logFile struct {
	dir    string
	path   string
	logger *logrus.Logger

	// captureStderr points fd 2 at the log file as well.
	captureStderr bool

	mu     sync.Mutex
	handle *os.File
}

func newLogger(debug bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if debug {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}
	return logger
}

// initLogging opens the log file in dir. An empty dir logs to stdout only.
func initLogging(logger *logrus.Logger, dir string) (*logFile, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	lf := &logFile{
		dir:    dir,
		path:   filepath.Join(dir, debugLogFile),
		logger: logger,
	}
	if err := lf.open(); err != nil {
		return nil, err
	}
	return lf, nil
}

// generations lists the rotated files, linkdecoder.log.1 first.
func (lf *logFile) generations() []string {
	entries, err := os.ReadDir(lf.dir)
	logs := make([]string, 0)
	if err != nil {
		return logs
	}

	for _, e := range entries {
		if strings.HasPrefix(e.Name(), debugLogFile+".") {
			logs = append(logs, filepath.Join(lf.dir, e.Name()))
		}
	}
	sort.Slice(logs, func(i, j int) bool {
		return generationOf(logs[i]) < generationOf(logs[j])
	})
	return logs
}

func generationOf(path string) int {
	parts := strings.Split(path, ".")
	n, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return 0
	}
	return n
}

func (lf *logFile) rotate() error {
	logs := lf.generations()

	// rename suffix, remove if > 9
	for i := len(logs) - 1; i >= 0; i-- {
		logNum := generationOf(logs[i])
		if logNum == 0 {
			continue
		}
		if logNum >= maxLogGeneration {
			os.Remove(logs[i])
			continue
		}
		os.Rename(logs[i], lf.path+"."+strconv.Itoa(logNum+1))
	}

	// Now rename current log file and re-open
	if err := os.Rename(lf.path, lf.path+".1"); err != nil {
		return err
	}
	return lf.open()
}

func (lf *logFile) deleteOldest() int64 {
	logs := lf.generations()
	if len(logs) == 0 {
		return 0
	}
	oldest := logs[len(logs)-1]
	stat, err := os.Stat(oldest)
	if err != nil {
		return 0
	}
	if err := os.Remove(oldest); err != nil {
		return 0
	}
	return stat.Size()
}

// check rotates an oversized log and deletes old generations until the
// disk has room again.
func (lf *logFile) check() {
	logSize, err := os.Stat(lf.path)
	if err == nil && logSize.Size() > maxLogSize {
		if err := lf.rotate(); err != nil {
			lf.logger.WithError(err).Warn("log rotation failed")
		}
	}

	usage := du.NewDiskUsage(lf.dir)
	freeBytes := int64(usage.Free())
	for freeBytes < minFreeBytes {
		deleted := lf.deleteOldest()
		if deleted == 0 {
			break
		}
		freeBytes += deleted
	}
}

func (lf *logFile) watch(done <-chan struct{}) {
	ticker := time.NewTicker(logWatchInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			lf.check()
		}
	}
}

func (lf *logFile) open() error {
	fp, err := os.OpenFile(lf.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return err
	}
	lf.mu.Lock()
	oldFp := lf.handle
	lf.handle = fp
	lf.mu.Unlock()

	lf.logger.SetOutput(io.MultiWriter(fp, os.Stdout))
	if lf.captureStderr {
		lf.redirectStderr()
	}

	if oldFp != nil {
		oldFp.Close()
	}
	return nil
}

// redirectStderr makes sure crash dumps are written to the log as well.
func (lf *logFile) redirectStderr() {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	lf.captureStderr = true
	if lf.handle != nil {
		syscall.Dup3(int(lf.handle.Fd()), 2, 0)
	}
}

func (lf *logFile) Close() error {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	if lf.handle == nil {
		return nil
	}
	err := lf.handle.Close()
	lf.handle = nil
	return err
}
