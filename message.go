package dco

import "fmt"

// Severity classifies a message code per spec.md §6: <3000 info, <6000
// warning, <9000 error, >=9000 fatal (caller expected to abort).
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

func severityOf(code MessageCode) Severity {
	switch {
	case code < 3000:
		return SeverityInfo
	case code < 6000:
		return SeverityWarning
	case code < 9000:
		return SeverityError
	default:
		return SeverityFatal
	}
}

// Message codes. Reproduced verbatim from original_source/src/DcoMessage.cpp
// (the "us_english" table), which is the normative numbering spec.md §6
// only partially enumerates.
const (
	MsgReadNoInts         MessageCode = 20
	MsgReadNoCones        MessageCode = 21
	MsgRootProcess        MessageCode = 30
	MsgRootTiming         MessageCode = 35
	MsgCutoffIncrement    MessageCode = 43
	MsgCutStatFinal       MessageCode = 53
	MsgCutStatNode        MessageCode = 55
	MsgGapNo              MessageCode = 57
	MsgGapYes             MessageCode = 58
	MsgHeuristicHit       MessageCode = 60
	MsgHeuristicStatFinal MessageCode = 63
	MsgHeuristicStatNode  MessageCode = 65
	MsgConeStats1         MessageCode = 101
	MsgConeStats2         MessageCode = 102
	MsgBranchedOnInteger  MessageCode = 9201
	MsgUnexpectedStatus   MessageCode = 9202
	MsgInvalidCutFreq     MessageCode = 9301
	MsgUnknownSolverStat  MessageCode = 9401
	MsgRelaxationFailed   MessageCode = 9402
	MsgOutOfMemory        MessageCode = 9901
	MsgNotImplemented     MessageCode = 9902
	MsgUnknownConeType    MessageCode = 9903
	MsgUnknownBranchStrat MessageCode = 9904
	MsgUnknownCutStrat    MessageCode = 9905
	MsgReadMPSError       MessageCode = 9001
	MsgReadMPSFileOnly    MessageCode = 9002
	MsgReadConeError      MessageCode = 9002
	MsgReadRotatedSize    MessageCode = 9002
)

var messageFormats = map[MessageCode]string{
	MsgReadNoInts:         "problem does not have integer variables",
	MsgReadNoCones:        "problem does not have conic constraints",
	MsgRootProcess:        "processing the root node (%d rows, %d columns)",
	MsgRootTiming:         "processing the first root relaxation took %s",
	MsgCutoffIncrement:    "objective coefficients are multiples of %g",
	MsgCutStatFinal:       "called %s cut generator %d times, generated %d cuts, CPU time %s, current strategy %v",
	MsgCutStatNode:        "node %d, called %s cut generator %d times, generated %d cuts, CPU time %s, current strategy %v",
	MsgGapNo:              "relative optimality gap is infinity because no solution was found",
	MsgGapYes:             "relative optimality gap is %.2f%%",
	MsgHeuristicHit:       "%s heuristic found a solution; quality is %g",
	MsgHeuristicStatFinal: "called %s heuristic %d times, found %d solutions, CPU time %s, current strategy %v",
	MsgHeuristicStatNode:  "node %d, called %s heuristic %d times, found %d solutions, CPU time %s, current strategy %v",
	MsgConeStats1:         "problem has %d cones",
	MsgConeStats2:         "cone %d has %d entries (type %v)",
	MsgBranchedOnInteger:  "branched on integer variable, index %d",
	MsgUnexpectedStatus:   "unexpected node status %v",
	MsgInvalidCutFreq:     "%d is not a valid cut frequency, changed it to %d",
	MsgUnknownSolverStat:  "unknown relaxation solver status",
	MsgRelaxationFailed:   "relaxation solver failed to solve the subproblem",
	MsgOutOfMemory:        "out of memory allocating for %s",
	MsgNotImplemented:     "not implemented: %s",
	MsgUnknownConeType:    "unknown cone type %v",
	MsgUnknownBranchStrat: "unknown branch strategy %v",
	MsgUnknownCutStrat:    "unknown cut strategy %v",
	MsgReadMPSError:       "reading conic MPS file failed: %s",
	MsgReadMPSFileOnly:    "Mosek-style conic MPS files only",
}

// MessageHandler formats catalog entries and writes them through a Logger,
// gating by logLevel the way CoinMessageHandler gates by detail level.
type MessageHandler struct {
	logger   Logger
	logLevel int
}

func newMessageHandler(logger Logger, logLevel int) *MessageHandler {
	if logger == nil {
		logger = noopLogger{}
	}
	return &MessageHandler{logger: logger, logLevel: logLevel}
}

// Printf emits a catalog message if detail is within the handler's log
// level. Severity is derived from the code, not passed separately.
func (h *MessageHandler) Printf(code MessageCode, detail int, args ...interface{}) {
	if detail > h.logLevel {
		return
	}
	format, ok := messageFormats[code]
	if !ok {
		format = "unrecognized message"
	}
	h.logger.Print(fmt.Sprintf("[%s %d] ", severityOf(code), code) + fmt.Sprintf(format, args...))
}

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "I"
	case SeverityWarning:
		return "W"
	case SeverityError:
		return "E"
	case SeverityFatal:
		return "S"
	default:
		return "?"
	}
}
