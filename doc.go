// Package estratto extracts document-level answers for extractive question
// answering. A scoring model returns per-token start/end scores for every
// passage of a document; estratto proposes candidate spans per passage,
// remaps them into document token space, arbitrates each against the
// per-passage no-answer score, and stringifies the winning spans back into
// literal substrings of the original document.
package estratto
