package extract

import (
	"encoding/json"
	"fmt"
)

// ResponseSchema is the single definition of the extraction output contract.
// Every entry point goes through this schema; the collaborator is constrained
// to return {"events": [...]} with all required keys present, using empty
// values rather than omission when information is unknown.
var ResponseSchema = json.RawMessage(`{
  "type": "OBJECT",
  "properties": {
    "events": {
      "type": "ARRAY",
      "description": "Eine Liste aller extrahierten Kalenderereignisse.",
      "items": {
        "type": "OBJECT",
        "properties": {
          "title": {"type": "STRING", "description": "Titel des Termins (z.B. 'Analysis I Vorlesung')."},
          "date": {"type": "STRING", "description": "Startdatum des ersten Termins im Format YYYY-MM-DD. Wenn es ein wiederkehrender Termin ist, das Datum des ersten Vorkommens."},
          "start_time": {"type": "STRING", "description": "Startzeit im 24-Stunden-Format HH:MM."},
          "end_time": {"type": "STRING", "description": "Endzeit im 24-Stunden-Format HH:MM."},
          "location": {"type": "STRING", "description": "Ort des Termins (z.B. 'Hörsaal 5C')."},
          "notes": {"type": "STRING", "description": "Zusätzliche Notizen oder Besonderheiten."},
          "recurrence": {"type": "STRING", "description": "Wiederholungsregel im RRULE-Format (z.B. 'FREQ=WEEKLY;BYDAY=TU'). Leer lassen, wenn es ein Einzeltermin ist."},
          "attendees": {"type": "ARRAY", "items": {"type": "STRING"}, "description": "Liste der Teilnehmer (z.B. Dozentenname)."},
          "all_day": {"type": "BOOLEAN", "description": "Gibt an, ob es sich um einen ganztägigen Termin handelt."},
          "calendar_id": {"type": "STRING", "description": "Optionale Kalender-ID."}
        },
        "required": ["title", "date", "start_time", "end_time", "location", "notes", "recurrence", "attendees", "all_day"]
      }
    }
  },
  "required": ["events"]
}`)

const instructionTemplate = `
Du bist DatePull, ein Stundenplan-zu-Kalender-Agent. Deine Eingabe ist ein wöchentlicher Stundenplan auf Deutsch (Text, Bild oder PDF). Extrahiere alle regulären Termine und liefere ausschließlich gültiges JSON gemäß dem vorgegebenen Schema.

Regeln:
- Zeitzone ist %s.
- Datum im Format YYYY-MM-DD. Für wöchentliche Termine, wähle das Datum des nächsten Vorkommens basierend auf dem heutigen Tag.
- Zeiten im 24-h-Format HH:MM.
- Fülle 'recurrence' als RRULE für alle wöchentlichen Termine (z.B. 'FREQ=WEEKLY;BYDAY=MO'). Die Wiederholung sollte kein Enddatum (UNTIL) haben.
- Lasse Felder leer (null oder leere Zeichenfolge), wenn die Information unbekannt ist; nicht raten.
- Kommentiere Besonderheiten kurz im Feld 'notes'.
- Wenn ein explizites Datum angegeben ist (z.B. 'am 15.10.'), erstelle einen Einzeltermin ohne Wiederholung. Wenn nur ein Wochentag angegeben ist (z.B. 'Montags'), erstelle einen wöchentlichen Termin.

Hier ist der Stundenplan-Text (falls vorhanden):
%s
`

// Instruction builds the extraction instruction for one submission. The
// schedule text may be empty when the submission is file-only.
func Instruction(scheduleText, timezone string) string {
	return fmt.Sprintf(instructionTemplate, timezone, scheduleText)
}
