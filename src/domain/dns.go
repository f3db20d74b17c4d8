package domain

import (
	"time"

	"github.com/miekg/dns"
	"golang.org/x/exp/slices"
)

const (
	DomainNameMaxLength    = 240
	RecordNameMaxLength    = 80
	RecordContentMaxLength = 255
	RecordTTLMin           = 180
	RecordTTLDefault       = 3600
	RecordGeoRegionGlobal  = 0
)

// DNSDomain is an authoritative zone at the external provider; the id
// is the provider's domain id.
type DNSDomain struct {
	ID       int       `json:"id"`
	MemberID int       `json:"member_id" db:"member_id"`
	Name     string    `json:"name"`
	Created  time.Time `json:"created"`
	Updated  time.Time `json:"updated"`
}

// RecordTypes the record service accepts. PTR is absent: reverse
// records are managed by the ptr_record service.
var RecordTypes = []string{
	"NS", "A", "AAAA", "CNAME", "MX", "TXT", "SRV", "SPF", "SSHFP", "LOC", "NAPTR",
}

// Record types that require a priority.
var PriorityRecordTypes = []string{"MX", "SRV", "NAPTR"}

type Record struct {
	ID              int       `json:"id"`
	Content         string    `json:"content"`
	DomainID        int       `json:"domain_id" db:"domain_id"`
	Failover        bool      `json:"failover"`
	FailoverContent *string   `json:"failover_content" db:"failover_content"`
	GeoRegion       int       `json:"georegion"`
	Name            string    `json:"name"`
	Priority        *int      `json:"priority"`
	TTL             int       `json:"ttl"`
	Type            string    `json:"type" db:"record_type"`
	Created         time.Time `json:"created"`
	Updated         time.Time `json:"updated"`
}

// IPAddressContent returns the record content for A/AAAA records, where
// the content is the target IP.
func (self Record) IPAddressContent() *string {
	if self.Type == "A" || self.Type == "AAAA" {
		return &self.Content
	}
	return nil
}

func (self Record) NeedsPriority() bool {
	return slices.Contains(PriorityRecordTypes, self.Type)
}

// ValidDomainName checks a zone or record owner name: dot-separated
// labels of at most 63 octets each.
func ValidDomainName(name string) bool {
	if name == "" || len(name) > DomainNameMaxLength {
		return false
	}
	_, ok := dns.IsDomainName(name)
	return ok
}

// ReverseDomainName derives the in-addr.arpa / ip6.arpa zone name for
// an IP literal.
func ReverseDomainName(ip string) (string, error) {
	reverse, err := dns.ReverseAddr(ip)
	if err != nil {
		return "", err
	}
	// ReverseAddr returns the full record owner; the provider manages
	// the zone one label up, and without the trailing dot.
	return trimFirstLabel(reverse), nil
}

func trimFirstLabel(name string) string {
	labels := dns.SplitDomainName(name)
	if len(labels) < 2 {
		return name
	}
	joined := ""
	for _, label := range labels[1:] {
		if joined != "" {
			joined += "."
		}
		joined += label
	}
	return joined
}
