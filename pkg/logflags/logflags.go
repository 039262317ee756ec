// Copyright 2023 The Beryl Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logflags selects which layers of the fault machinery log, and
// hands out a configured logger per layer. Logging never happens on the
// signal path itself; these loggers serve installation, configuration, and
// the fatal report.
package logflags

import (
	"errors"
	"io"
	"log"
	"strings"

	"github.com/sirupsen/logrus"
)

var trapFlag = false
var install = false
var threads = false
var report = false

func makeLogger(flag bool, fields logrus.Fields) *logrus.Entry {
	logger := logrus.New().WithFields(fields)
	logger.Logger.Level = logrus.DebugLevel
	if !flag {
		logger.Logger.Level = logrus.PanicLevel
	}
	return logger
}

// Trap returns true if fault classification outcomes should be logged.
func Trap() bool {
	return trapFlag
}

// TrapLogger returns a logger for classification outcomes.
func TrapLogger() *logrus.Entry {
	return makeLogger(trapFlag, logrus.Fields{"layer": "trap"})
}

// Install returns true if handler installation should be logged.
func Install() bool {
	return install
}

// InstallLogger returns a logger for handler installation.
func InstallLogger() *logrus.Entry {
	return makeLogger(install, logrus.Fields{"layer": "sigchain"})
}

// Threads returns true if thread registration should be logged.
func Threads() bool {
	return threads
}

// ThreadsLogger returns a logger for thread registration and guard setup.
func ThreadsLogger() *logrus.Entry {
	return makeLogger(threads, logrus.Fields{"layer": "vmthread"})
}

// Report returns true if the fatal reporter should log its progress.
func Report() bool {
	return report
}

// ReportLogger returns a logger for the fatal reporter.
func ReportLogger() *logrus.Entry {
	return makeLogger(report, logrus.Fields{"layer": "report"})
}

var errLogstrWithoutLog = errors.New("--log-output specified without --log")

// Setup sets logging flags based on the contents of logstr, a comma
// separated list of layer names.
func Setup(logFlag bool, logstr string) error {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	if !logFlag {
		log.SetOutput(io.Discard)
		if logstr != "" {
			return errLogstrWithoutLog
		}
		return nil
	}
	if logstr == "" {
		logstr = "trap"
	}
	for _, logcmd := range strings.Split(logstr, ",") {
		switch logcmd {
		case "trap":
			trapFlag = true
		case "sigchain":
			install = true
		case "vmthread":
			threads = true
		case "report":
			report = true
		default:
			return errors.New("invalid log layer " + logcmd)
		}
	}
	return nil
}
