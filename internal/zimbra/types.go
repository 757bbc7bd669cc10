package zimbra

// Attribute names requested from the directory. Exactly this set is pulled;
// the sync fingerprint and local mirror consume no others.
const (
	AttrAccountStatus      = "zimbraAccountStatus"
	AttrDisplayName        = "displayName"
	AttrForwardingAddress  = "zimbraMailForwardingAddress"
	AttrPrefForwardingAddr = "zimbraPrefMailForwardingAddress"
	AttrMailQuota          = "zimbraMailQuota"
	AttrLastLogonTimestamp = "zimbraLastLogonTimestamp"
	AttrCosID              = "zimbraCOSId"
)

// AccountAttrs is the attribute set passed to SearchDirectoryRequest.
var AccountAttrs = []string{
	AttrAccountStatus,
	AttrDisplayName,
	AttrForwardingAddress,
	AttrPrefForwardingAddr,
	AttrMailQuota,
	AttrLastLogonTimestamp,
	AttrCosID,
}

// RemoteAccount is one directory account as returned by a search or get.
// Unknown attributes are dropped during parsing; missing ones stay "".
type RemoteAccount struct {
	ID                    string `json:"id"`
	Name                  string `json:"name"`
	AccountStatus         string `json:"account_status"`
	DisplayName           string `json:"display_name"`
	ForwardingAddress     string `json:"forwarding_address"`
	PrefForwardingAddress string `json:"pref_forwarding_address"`
	MailQuota             string `json:"mail_quota"`
	LastLogonTimestamp    string `json:"last_logon_timestamp"`
	CosID                 string `json:"cos_id"`
}

// SearchResult is one page of a directory search.
type SearchResult struct {
	Accounts []RemoteAccount `json:"accounts"`
	More     bool            `json:"more"`
	Total    int             `json:"total"`
}

// SearchParams selects and pages a directory search.
type SearchParams struct {
	Query  string
	Domain string
	Limit  int
	Offset int
}

// statusToRemote maps local account statuses to the directory vocabulary.
// Local-only statuses (pending_purge, purged) have no remote counterpart.
var statusToRemote = map[string]string{
	"active": "active",
	"locked": "locked",
	"closed": "closed",
}

// statusFromRemote maps the directory vocabulary to local statuses.
// Lockout and maintenance are remote-only states treated as locked.
var statusFromRemote = map[string]string{
	"active":      "active",
	"locked":      "locked",
	"closed":      "closed",
	"lockout":     "locked",
	"maintenance": "locked",
}

// RemoteStatusFor returns the directory status for a local status, and
// whether the local status has a remote counterpart at all.
func RemoteStatusFor(local string) (string, bool) {
	s, ok := statusToRemote[local]
	return s, ok
}

// MapRemoteStatus translates a directory status to the local vocabulary.
// Unknown statuses default to active.
func MapRemoteStatus(remote string) string {
	if s, ok := statusFromRemote[remote]; ok {
		return s
	}
	return "active"
}
