package at

const (
	// Terminal Control
	CR   = "\r"
	CRLF = "\r\n"

	// Response Codes
	OK    = "OK"
	ERROR = "ERROR"

	// URCs (Unsolicited Result Codes)
	UrcSocketData = "+NSONMI"

	// MinLineLength is the shortest accumulation, terminator included,
	// that counts as a line. Anything shorter is CRLF noise and stays
	// in the buffer.
	MinLineLength = 3
)

// Commands understood by the Quectel BC28. The socket commands are
// format strings for fmt.Sprintf.
const (
	CmdAt           = "AT\r"
	CmdIMSI         = "AT+CIMI\r"
	CmdIMEI         = "AT+CGSN=1\r"
	CmdReboot       = "AT+NRB\r"
	CmdRegistration = "AT+CEREG?\r"
	CmdSocketCreate = "AT+NSOCR=STREAM,6,4587,1\r"

	CmdSocketConnect = "AT+NSOCO=%d,%s,%s\r"
	CmdSocketSend    = "AT+NSOSD=%d,%d,%s\r"
	CmdSocketRead    = "AT+NSORF=%d,%d\r"
	CmdSocketClose   = "AT+NSOCL=%d\r"
)

type ResponseType int

const (
	TypeData  ResponseType = iota // Intermediate command output
	TypeOK                        // Terminal success
	TypeError                     // Terminal failure
	TypeURC                       // Asynchronous notifications
)

func (t ResponseType) String() string {
	switch t {
	case TypeOK:
		return "ok"
	case TypeError:
		return "error"
	case TypeURC:
		return "urc"
	default:
		return "data"
	}
}
