package zimbra

import (
	"encoding/xml"
	"fmt"
	"sort"
	"strings"
)

// Request envelopes are assembled as strings with every piece of text
// content escaped, matching the admin API's SOAP 1.2 dialect. Responses
// are decoded with encoding/xml; element names are matched without
// namespace qualification since the directory emits both namespaced and
// bare variants depending on version.

const (
	envelopeOpen = `<?xml version="1.0" encoding="UTF-8"?>` +
		`<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope">`
	envelopeClose = `</soap:Envelope>`
	headerNoAuth  = `<soap:Header><context xmlns="urn:zimbra"/></soap:Header>`
)

// escapeXML escapes text for inclusion in element content or attribute
// values. Every caller-supplied string passes through here; a payload must
// never be able to break out of its element.
func escapeXML(s string) string {
	var b strings.Builder
	if err := xml.EscapeText(&b, []byte(s)); err != nil {
		// strings.Builder never returns a write error.
		panic(err)
	}
	return b.String()
}

// wrap builds a full SOAP envelope around a body, with an auth header when
// a token is present.
func wrap(body, authToken string) string {
	header := headerNoAuth
	if authToken != "" {
		header = `<soap:Header><context xmlns="urn:zimbra"><authToken>` +
			escapeXML(authToken) + `</authToken><nosession/></context></soap:Header>`
	}
	return envelopeOpen + header + `<soap:Body>` + body + `</soap:Body>` + envelopeClose
}

func buildAuthRequest(username, password string) string {
	body := `<AuthRequest xmlns="urn:zimbraAdmin">` +
		`<name>` + escapeXML(username) + `</name>` +
		`<password>` + escapeXML(password) + `</password>` +
		`</AuthRequest>`
	return wrap(body, "")
}

func buildSearchDirectoryRequest(authToken string, p SearchParams, attrs []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<SearchDirectoryRequest xmlns="urn:zimbraAdmin" limit="%d" offset="%d" types="accounts" sortBy="name" sortAscending="1"`,
		p.Limit, p.Offset)
	if len(attrs) > 0 {
		b.WriteString(` attrs="` + escapeXML(strings.Join(attrs, ",")) + `"`)
	}
	if p.Domain != "" {
		b.WriteString(` domain="` + escapeXML(p.Domain) + `"`)
	}
	b.WriteString(`>`)
	if p.Query != "" {
		b.WriteString(`<query>` + escapeXML(p.Query) + `</query>`)
	}
	b.WriteString(`</SearchDirectoryRequest>`)
	return wrap(b.String(), authToken)
}

func buildGetAccountRequest(authToken, key, by string) string {
	body := `<GetAccountRequest xmlns="urn:zimbraAdmin">` +
		`<account by="` + escapeXML(by) + `">` + escapeXML(key) + `</account>` +
		`</GetAccountRequest>`
	return wrap(body, authToken)
}

func buildModifyAccountRequest(authToken, zimbraID string, attrs map[string]string) string {
	names := make([]string, 0, len(attrs))
	for n := range attrs {
		names = append(names, n)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(`<ModifyAccountRequest xmlns="urn:zimbraAdmin">`)
	b.WriteString(`<id>` + escapeXML(zimbraID) + `</id>`)
	for _, n := range names {
		b.WriteString(`<a n="` + escapeXML(n) + `">` + escapeXML(attrs[n]) + `</a>`)
	}
	b.WriteString(`</ModifyAccountRequest>`)
	return wrap(b.String(), authToken)
}

func buildDeleteAccountRequest(authToken, zimbraID string) string {
	body := `<DeleteAccountRequest xmlns="urn:zimbraAdmin">` +
		`<id>` + escapeXML(zimbraID) + `</id>` +
		`</DeleteAccountRequest>`
	return wrap(body, authToken)
}

func buildGetMailboxRequest(authToken, zimbraID string) string {
	body := `<GetMailboxRequest xmlns="urn:zimbraAdmin">` +
		`<mbox id="` + escapeXML(zimbraID) + `"/>` +
		`</GetMailboxRequest>`
	return wrap(body, authToken)
}

// ---------- Response parsing ----------

type soapEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    soapBody `xml:"Body"`
}

type soapBody struct {
	Fault *soapFault `xml:"Fault"`
	Inner []byte     `xml:",innerxml"`
}

type soapFault struct {
	Reason struct {
		Text string `xml:"Text"`
	} `xml:"Reason"`
	Detail struct {
		Error struct {
			Code  string `xml:"Code"`
			Trace string `xml:"Trace"`
		} `xml:"Error"`
	} `xml:"Detail"`
}

// fault is a business-level error carried in-band in a 200 response.
type fault struct {
	Message string
	Code    string
}

// parseEnvelope splits a response into either a fault or the raw body
// content holding the single response element.
func parseEnvelope(data []byte) ([]byte, *fault, error) {
	var env soapEnvelope
	if err := xml.Unmarshal(data, &env); err != nil {
		return nil, nil, fmt.Errorf("malformed SOAP response: %w", err)
	}
	if env.Body.Fault != nil {
		f := &fault{
			Message: env.Body.Fault.Reason.Text,
			Code:    env.Body.Fault.Detail.Error.Code,
		}
		if f.Message == "" {
			f.Message = env.Body.Fault.Detail.Error.Trace
		}
		if f.Message == "" {
			f.Message = "unknown SOAP fault"
		}
		return nil, f, nil
	}
	if len(env.Body.Inner) == 0 {
		return nil, nil, fmt.Errorf("no SOAP body found in response")
	}
	return env.Body.Inner, nil, nil
}

type accountElement struct {
	ID    string `xml:"id,attr"`
	Name  string `xml:"name,attr"`
	Attrs []struct {
		N     string `xml:"n,attr"`
		Value string `xml:",chardata"`
	} `xml:"a"`
}

func (e accountElement) toRemoteAccount() RemoteAccount {
	a := RemoteAccount{ID: e.ID, Name: e.Name}
	for _, attr := range e.Attrs {
		switch attr.N {
		case AttrAccountStatus:
			a.AccountStatus = attr.Value
		case AttrDisplayName:
			a.DisplayName = attr.Value
		case AttrForwardingAddress:
			a.ForwardingAddress = attr.Value
		case AttrPrefForwardingAddr:
			a.PrefForwardingAddress = attr.Value
		case AttrMailQuota:
			a.MailQuota = attr.Value
		case AttrLastLogonTimestamp:
			a.LastLogonTimestamp = attr.Value
		case AttrCosID:
			a.CosID = attr.Value
		}
	}
	return a
}

func parseAuthResponse(body []byte) (string, error) {
	var resp struct {
		XMLName xml.Name `xml:"AuthResponse"`
		Token   string   `xml:"authToken"`
	}
	if err := xml.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("no AuthResponse found: %w", err)
	}
	if resp.Token == "" {
		return "", fmt.Errorf("no authToken found in AuthResponse")
	}
	return resp.Token, nil
}

func parseSearchResponse(body []byte) (*SearchResult, error) {
	var resp struct {
		XMLName  xml.Name         `xml:"SearchDirectoryResponse"`
		More     bool             `xml:"more,attr"`
		Total    int              `xml:"searchTotal,attr"`
		Accounts []accountElement `xml:"account"`
	}
	if err := xml.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("no SearchDirectoryResponse found: %w", err)
	}
	result := &SearchResult{More: resp.More, Total: resp.Total}
	for _, el := range resp.Accounts {
		result.Accounts = append(result.Accounts, el.toRemoteAccount())
	}
	if result.Total == 0 {
		result.Total = len(result.Accounts)
	}
	return result, nil
}

func parseGetAccountResponse(body []byte) (*RemoteAccount, error) {
	var resp struct {
		XMLName xml.Name        `xml:"GetAccountResponse"`
		Account *accountElement `xml:"account"`
	}
	if err := xml.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("no GetAccountResponse found: %w", err)
	}
	if resp.Account == nil {
		return nil, fmt.Errorf("no account element in GetAccountResponse")
	}
	a := resp.Account.toRemoteAccount()
	return &a, nil
}

func parseGetMailboxResponse(body []byte) (int64, error) {
	var resp struct {
		XMLName xml.Name `xml:"GetMailboxResponse"`
		Mbox    struct {
			Size int64 `xml:"s,attr"`
		} `xml:"mbox"`
	}
	if err := xml.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("no GetMailboxResponse found: %w", err)
	}
	return resp.Mbox.Size, nil
}
