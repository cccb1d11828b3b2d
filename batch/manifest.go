package batch

import (
	"encoding/hex"
	"time"

	"golang.org/x/crypto/sha3"

	"github.com/muqadar-ali/docshade/pipeline"
)

// Manifest records what the batch did to every input, including the ones
// that failed. It is the caller-facing account of degradations and
// limitations; nothing in it is best-effort or silent.
type Manifest struct {
	GeneratedAt time.Time
	Documents   []Entry
}

// Entry is the manifest record for one input document.
type Entry struct {
	Input  string
	Output string
	// Digest is the hex SHA3-256 of the output bytes; empty on failure.
	Digest        string
	Pages         int
	Masks         int
	FailedPages   []int
	DegradedPages []int
	Warnings      []pipeline.Warning
	// Error is set when the whole document failed; the document is then
	// absent from the deliverable.
	Error string
}

// Digest returns the hex SHA3-256 of data.
func Digest(data []byte) string {
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func buildManifest(inputs []Input, docs []pipeline.ProcessedDocument, failures []error) Manifest {
	m := Manifest{GeneratedAt: time.Now().UTC()}
	for i, in := range inputs {
		entry := Entry{Input: in.Name}
		if failures[i] != nil {
			entry.Error = failures[i].Error()
			m.Documents = append(m.Documents, entry)
			continue
		}
		res := docs[i].Result
		entry.Output = OutputPrefix + in.Name
		entry.Digest = Digest(docs[i].Data)
		entry.Pages = len(res.Pages)
		entry.FailedPages = res.FailedPages()
		entry.DegradedPages = res.DegradedPages()
		entry.Warnings = res.Warnings
		for _, pg := range res.Pages {
			entry.Masks += pg.MasksDrawn
		}
		m.Documents = append(m.Documents, entry)
	}
	return m
}
