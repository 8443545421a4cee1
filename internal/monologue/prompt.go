package monologue

import (
	"fmt"
	"strings"
)

// promptTemplate targets ElevenLabs v3 audio tags so generated text can be fed
// to synthesis as-is. The %s slot takes a comma-joined symptom list.
const promptTemplate = `You are writing text that will be fed directly to ElevenLabs TTS (Eleven v3 Audio Tags).

TASK
Write a short emergency-call monologue in English by a distressed civilian.

CONTENT REQUIREMENTS
- Naturally include and describe these symptoms without naming any disease: %s
- Only the caller's words. No dispatcher. No headings, bullets, quotes, or explanations.

STYLE & DELIVERY
- Realistic, emotional speech under stress: hesitations, fillers (uh/um), repetitions, stutters, ellipses and dashes.
- Vary vocabulary and intensity across samples. Avoid templatey phrasing.

ELEVENLABS AUDIO TAGS (MANDATORY)
- Use inline audio tags in square brackets to direct delivery and non-speech sounds (2-5 total), e.g.:
  [sobbing], [crying], [gasping], [breathing heavily], [whispering], [shouting], [coughing], [wheezing], [sighs]
- Optionally ONE environmental tag if relevant: e.g., [sirens in distance], [traffic noise], [wind].
- Place tags inline with the words (no colons).
- Do not invent new formatting beyond bracketed tags.

LENGTH & FORM
- 90-160 words total (about 8-20 seconds).
- 1-2 short paragraphs; 1-3 sentences per paragraph.
- ASCII punctuation only. No metadata, no speaker labels.

OUTPUT
- Output ONLY the monologue text itself.
Now write the monologue.`

// BuildPrompt renders the generation prompt for a sampled symptom set.
func BuildPrompt(sampled []string) string {
	return fmt.Sprintf(promptTemplate, strings.Join(sampled, ", "))
}
