package storage

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"
)

// GCSHost serves public object URLs when no custom public URL is set.
const GCSHost = "storage.googleapis.com"

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

// Keys builds object keys inside the bucket's namespaces and the public URLs
// pointing at them:
//
//	invoices/{userID}/{invoiceID}/{fileName}
//	xrechnung/{userID}/{invoiceID}/xrechnung.xml
//	logos/{companyID}/logo.{png|jpg}
//	abtretungserklaerungen/{customerID}/{unixMillis}-{fileName}
//
// A non-empty Prefix is prepended to every key.
type Keys struct {
	Bucket    string
	Prefix    string
	PublicURL string
}

func (k Keys) build(parts ...string) string {
	rel := path.Join(parts...)
	prefix := strings.Trim(k.Prefix, "/")
	if prefix == "" {
		return rel
	}
	return prefix + "/" + rel
}

// Invoice returns the key of an invoice document.
func (k Keys) Invoice(userID, invoiceID, fileName string) string {
	return k.build("invoices", segment(userID), segment(invoiceID), segment(fileName))
}

// XRechnung returns the key of an invoice's standalone XML.
func (k Keys) XRechnung(userID, invoiceID string) string {
	return k.build("xrechnung", segment(userID), segment(invoiceID), "xrechnung.xml")
}

// Logo returns the key of a company logo. PNG content keeps the png
// extension; anything else is stored as jpg.
func (k Keys) Logo(companyID, contentType string) string {
	ext := "jpg"
	if strings.EqualFold(strings.TrimSpace(contentType), "image/png") {
		ext = "png"
	}
	return k.build("logos", segment(companyID), "logo."+ext)
}

// Attachment returns the key of a customer's assignment declaration. The
// timestamp keeps repeated uploads apart.
func (k Keys) Attachment(customerID, fileName string, now time.Time) string {
	name := unsafeFileChars.ReplaceAllString(fileName, "_")
	return k.build("abtretungserklaerungen", segment(customerID), fmt.Sprintf("%d-%s", now.UnixMilli(), name))
}

// Attachments returns the key prefix under which Attachment stores a
// customer's uploads.
func (k Keys) Attachments(customerID string) string {
	return k.build("abtretungserklaerungen", segment(customerID)) + "/"
}

// URL returns the public URL of key.
func (k Keys) URL(key string) string {
	if base := strings.TrimRight(k.PublicURL, "/"); base != "" {
		return base + "/" + key
	}
	return fmt.Sprintf("https://%s/%s/%s", GCSHost, k.Bucket, key)
}

// KeyFromURL recovers the object key from a URL built by URL. Strings that
// do not parse as absolute URLs are taken to be keys already.
func (k Keys) KeyFromURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return strings.TrimLeft(raw, "/")
	}

	p, err := url.PathUnescape(u.EscapedPath())
	if err != nil {
		p = u.Path
	}
	parts := strings.FieldsFunc(p, func(r rune) bool { return r == '/' })

	if k.PublicURL != "" {
		if pub, err := url.Parse(k.PublicURL); err == nil && pub.Host == u.Host {
			base := strings.FieldsFunc(pub.Path, func(r rune) bool { return r == '/' })
			if len(parts) >= len(base) {
				parts = parts[len(base):]
			}
			return strings.Join(parts, "/")
		}
	}

	if len(parts) > 0 && parts[0] == k.Bucket {
		parts = parts[1:]
	}
	return strings.Join(parts, "/")
}

// segment keeps user-supplied identifiers from adding path levels.
func segment(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, "/", "_")
	return strings.Trim(s, ". ")
}
