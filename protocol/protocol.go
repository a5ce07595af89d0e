package protocol

import (
	"errors"
	"strconv"
	"strings"

	"chatrelay/models"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrMalformed      = errors.New("malformed command")
)

// Kind tags a decoded client request.
type Kind int

const (
	KindLogin Kind = iota
	KindLogout
	KindRegister
	KindSend
	KindGroupMsg
	KindCreateGroup
	KindJoinGroup
	KindSnapshot      // TOLOGIN / RETOLOGIN
	KindGroupFileList // GROUP_FILE_LIST_REQUEST
	KindGroupFilePort // GROUP_FILE_UPLOAD / GROUP_FILE_DOWNLOAD
	KindFileRelay     // FILE_OFFER / FILE_ACCEPT / FILE_CONNECT
)

// LogoutKind distinguishes a voluntary disconnect from the teardown of
// a connection that was displaced by a newer login. On the wire the
// displaced variant is encoded as a "_no" suffix on the username; the
// suffix never leaves this package.
type LogoutKind int

const (
	LogoutVoluntary LogoutKind = iota
	LogoutDisplaced
)

// Request is one decoded client command. Only the fields relevant to
// its Kind are populated; Raw always holds the original line.
type Request struct {
	Kind      Kind
	Username  string
	Password  string
	Recipient string
	Content   string
	GroupID   string
	GroupName string
	Members   []string
	Logout    LogoutKind
	Raw       string
}

const displacedSuffix = "_no"

// Parse decodes a single protocol line. The line must already be
// stripped of its trailing newline.
func Parse(line string) (*Request, error) {
	req := &Request{Raw: line}

	switch {
	case strings.HasPrefix(line, "LOGIN:"):
		name := strings.TrimSpace(line[len("LOGIN:"):])
		if name == "" {
			return nil, ErrMalformed
		}
		req.Kind = KindLogin
		req.Username = name

	case strings.HasPrefix(line, "LOGOUT:"):
		name := line[len("LOGOUT:"):]
		if name == "" {
			return nil, ErrMalformed
		}
		req.Kind = KindLogout
		if base, ok := strings.CutSuffix(name, displacedSuffix); ok {
			req.Username = base
			req.Logout = LogoutDisplaced
		} else {
			req.Username = name
			req.Logout = LogoutVoluntary
		}

	case strings.HasPrefix(line, "REGISTER:"):
		parts := strings.SplitN(line, ":", 3)
		if len(parts) < 3 || parts[1] == "" {
			return nil, ErrMalformed
		}
		req.Kind = KindRegister
		req.Username = parts[1]
		req.Password = parts[2]

	case strings.HasPrefix(line, "SEND:"):
		// Content may itself contain ':'.
		parts := strings.SplitN(line, ":", 3)
		if len(parts) < 3 || parts[1] == "" {
			return nil, ErrMalformed
		}
		req.Kind = KindSend
		req.Recipient = parts[1]
		req.Content = parts[2]

	case strings.HasPrefix(line, "GROUP_MSG|"):
		// Content may itself contain '|'.
		parts := strings.SplitN(line, "|", 3)
		if len(parts) < 3 || parts[1] == "" {
			return nil, ErrMalformed
		}
		req.Kind = KindGroupMsg
		req.GroupID = parts[1]
		req.Content = parts[2]

	case strings.HasPrefix(line, "CREATE_GROUP|"):
		parts := strings.SplitN(line, "|", 5)
		if len(parts) < 5 || parts[1] == "" || parts[3] == "" {
			return nil, ErrMalformed
		}
		req.Kind = KindCreateGroup
		req.GroupID = parts[1]
		req.GroupName = parts[2]
		req.Username = parts[3]
		req.Members = strings.Split(parts[4], ",")

	case strings.HasPrefix(line, "JOIN_GROUP|"):
		parts := strings.SplitN(line, "|", 3)
		if len(parts) < 3 || parts[1] == "" || parts[2] == "" {
			return nil, ErrMalformed
		}
		req.Kind = KindJoinGroup
		req.GroupID = parts[1]
		req.Username = parts[2]

	case strings.HasPrefix(line, "GROUP_FILE_LIST_REQUEST|"):
		parts := strings.SplitN(line, "|", 2)
		if len(parts) != 2 || parts[1] == "" {
			return nil, ErrMalformed
		}
		req.Kind = KindGroupFileList
		req.GroupID = parts[1]

	case strings.HasPrefix(line, "GROUP_FILE_UPLOAD ") || strings.HasPrefix(line, "GROUP_FILE_DOWNLOAD "):
		req.Kind = KindGroupFilePort

	case strings.HasPrefix(line, "FILE_OFFER ") ||
		strings.HasPrefix(line, "FILE_ACCEPT ") ||
		strings.HasPrefix(line, "FILE_CONNECT "):
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, ErrMalformed
		}
		req.Kind = KindFileRelay
		req.Recipient = fields[1]

	case strings.HasPrefix(line, "TOLOGIN") || strings.HasPrefix(line, "RETOLOGIN"):
		req.Kind = KindSnapshot

	default:
		return nil, ErrUnknownCommand
	}

	return req, nil
}

// Server -> client literals without variable parts.
const (
	AccountConflict = "ACCOUNT_CONFLICT"
	UserListUpdated = "USERLIST_UPDATED"
)

func FormatDirect(sender, recipient, content string) string {
	return "MSG:" + sender + ":" + recipient + ":" + content
}

func FormatGroupMessage(sender, groupID, groupName, content string) string {
	return "GROUP_MSG|" + sender + "|" + groupID + "|" + groupName + "|" + content
}

func FormatStatusOn(username string) string {
	return "STATUSON:" + username
}

func FormatStatusOff(username string) string {
	return "STATUSOFF:" + username
}

// FormatUserList renders the full account snapshot:
// USERLIST:<name,password,online;>*
func FormatUserList(accounts []models.Account) string {
	var sb strings.Builder
	sb.WriteString("USERLIST:")
	for _, a := range accounts {
		sb.WriteString(a.Name)
		sb.WriteByte(',')
		sb.WriteString(a.Password)
		sb.WriteByte(',')
		sb.WriteString(strconv.FormatBool(a.Online))
		sb.WriteByte(';')
	}
	return sb.String()
}

// FormatGroupRecord renders one group directory snapshot entry.
func FormatGroupRecord(g *models.Group) string {
	return "ADDGROUP|" + g.ID + "|" + g.Name + "|" + g.Creator + "|" + strings.Join(g.Members, ",")
}

func FormatGroupJoined(groupID, groupName string) string {
	return "GROUP_JOINED|" + groupID + "|" + groupName
}

func FormatMemberJoined(groupID, groupName, username string) string {
	return "GROUP_MEMBER_JOINED|" + groupID + "|" + groupName + "|" + username
}

func FormatGroupFileList(groupID string, files []string) string {
	return "GROUP_FILE_LIST|" + groupID + "|" + strings.Join(files, ",")
}

func FormatError(reason string) string {
	return "ERROR|" + reason
}

func FormatInfo(reason string) string {
	return "INFO|" + reason
}
