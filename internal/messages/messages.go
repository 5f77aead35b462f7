// Package messages holds the localized texts sent to candidates.
package messages

import (
	"fmt"
	"strings"
)

// ID names a message.
type ID string

const (
	Disclosure         ID = "disclosure"
	ConsentUnclear     ID = "consent_unclear"
	ConsentRefused     ID = "consent_refused"
	AskProfile         ID = "ask_profile"
	AskMissing         ID = "ask_missing"
	Noted              ID = "noted"
	DocumentProcessed  ID = "document_processed"
	DocumentSummary    ID = "document_summary"
	DocUnsupported     ID = "doc_unsupported"
	DocOversize        ID = "doc_oversize"
	DocTimeout         ID = "doc_timeout"
	DocTransport       ID = "doc_transport"
	DocEmpty           ID = "doc_empty"
	DocUnavailable     ID = "doc_unavailable"
	ProfileSummary     ID = "profile_summary"
	ConfirmUnclear     ID = "confirm_unclear"
	ProfileDenied      ID = "profile_denied"
	AskQualification   ID = "ask_qualification"
	AskNote            ID = "ask_note"
	MatchesHeader      ID = "matches_header"
	MatchLine          ID = "match_line"
	NoMatches          ID = "no_matches"
	PartialCaveat      ID = "partial_caveat"
	AskDispatchConsent ID = "ask_dispatch_consent"
	DispatchUnclear    ID = "dispatch_unclear"
	Dispatched         ID = "dispatched"
	DispatchFailed     ID = "dispatch_failed"
	DispatchRefused    ID = "dispatch_refused"
	Closing            ID = "closing"
	GenericFailure     ID = "generic_failure"
	FieldEducation     ID = "field_education"
	FieldExperience    ID = "field_experience_summary"
	FieldSkills        ID = "field_hard_skills"
	FieldLanguage      ID = "field_language_level"
	FieldName          ID = "field_name"
	FieldDesiredTitle  ID = "field_desired_title"
	FieldValueNotGiven ID = "field_not_given"
	SummaryLine        ID = "summary_line"
)

// DefaultLocale is used for unknown locales and missing translations.
const DefaultLocale = "en"

var catalog = map[string]map[ID]string{
	"en": {
		Disclosure: "Hi! I'm an automated assistant that helps recruiters get to know candidates. " +
			"I use AI to read your answers and documents, and a person reviews the result before anything happens. " +
			"Your data is kept only as long as needed and deleted afterwards. Do you agree to continue?",
		ConsentUnclear: "Sorry, I didn't get that. Please answer yes or no: do you agree to continue?",
		ConsentRefused: "Understood. I've deleted our conversation. If you change your mind, just write again.",
		AskProfile: "Thanks! Tell me about your education, work experience, skills and your level in the working language. " +
			"You can also send your CV as a PDF or a photo.",
		AskMissing:        "Thanks, noted. I still need: %s.",
		Noted:             "Thanks, I'm reading that now.",
		DocumentProcessed: "I've read your document.",
		DocumentSummary:   "From your document I got:\n%s",
		DocUnsupported:    "Sorry, I can't read that type of file. Please send a PDF, JPG or PNG.",
		DocOversize:       "That file is too large. Please send a smaller one (up to %d MB).",
		DocTimeout:        "Downloading your file took too long. Please try again.",
		DocTransport:      "I couldn't download your file. Please try sending it again.",
		DocEmpty:          "I couldn't find your education or experience in that document. You can send another one or write it to me.",
		DocUnavailable:    "I can't read documents right now. Please try again in a few minutes, or write your details to me.",
		ProfileSummary:    "This is what I have:\n%s\nIs this correct?",
		ConfirmUnclear:    "Please answer yes if the summary is correct, or no to start over.",
		ProfileDenied:     "No problem, let's start over. Tell me about your education, experience, skills and language level.",
		AskQualification: "Great. When could you start, and do you need any accommodation or adjustment to work? " +
			"Tell me anything relevant about your availability.",
		AskNote:            "Is there anything else you'd like the recruiter to know? You can also say no.",
		MatchesHeader:      "These positions look like a good fit:",
		MatchLine:          "%d. %s%s (match %.0f%%)",
		NoMatches:          "I couldn't find a strong match right now, but a recruiter will still look at your profile.",
		PartialCaveat:      "Some of your details are missing, so these scores are conservative.",
		AskDispatchConsent: "May I send your profile summary to a recruiter? Please answer yes or no.",
		DispatchUnclear:    "Please answer yes or no: may I send your profile summary to a recruiter?",
		Dispatched:         "Done! A recruiter will review your profile and contact you. Thank you!",
		DispatchFailed:     "I couldn't send your profile right now. Please reply yes again in a few minutes.",
		DispatchRefused:    "Understood, I won't share your profile. I've deleted our conversation.",
		Closing:            "Our conversation is finished. Write /reset if you want to start again.",
		GenericFailure:     "Sorry, something went wrong on my side. Please try again in a moment.",
		FieldEducation:     "Education",
		FieldExperience:    "Experience",
		FieldSkills:        "Skills",
		FieldLanguage:      "Language level",
		FieldName:          "Name",
		FieldDesiredTitle:  "Desired position",
		FieldValueNotGiven: "not given",
		SummaryLine:        "- %s: %s",
	},
	"es": {
		Disclosure: "¡Hola! Soy un asistente automático que ayuda a los reclutadores a conocer a los candidatos. " +
			"Uso IA para leer tus respuestas y documentos, y una persona revisa el resultado antes de tomar cualquier decisión. " +
			"Tus datos se guardan solo el tiempo necesario y luego se eliminan. ¿Aceptas continuar?",
		ConsentUnclear: "Perdona, no te he entendido. Responde sí o no: ¿aceptas continuar?",
		ConsentRefused: "Entendido. He eliminado nuestra conversación. Si cambias de opinión, vuelve a escribir.",
		AskProfile: "¡Gracias! Cuéntame tu formación, experiencia laboral, habilidades y tu nivel del idioma de trabajo. " +
			"También puedes enviar tu CV en PDF o una foto.",
		AskMissing:        "Gracias, anotado. Aún necesito: %s.",
		Noted:             "Gracias, lo estoy leyendo.",
		DocumentProcessed: "He leído tu documento.",
		DocumentSummary:   "De tu documento he obtenido:\n%s",
		DocUnsupported:    "Lo siento, no puedo leer ese tipo de archivo. Envía un PDF, JPG o PNG.",
		DocOversize:       "El archivo es demasiado grande. Envía uno más pequeño (hasta %d MB).",
		DocTimeout:        "La descarga de tu archivo tardó demasiado. Inténtalo de nuevo.",
		DocTransport:      "No pude descargar tu archivo. Prueba a enviarlo otra vez.",
		DocEmpty:          "No encontré tu formación ni tu experiencia en ese documento. Puedes enviar otro o escribírmelo.",
		DocUnavailable:    "Ahora mismo no puedo leer documentos. Inténtalo de nuevo en unos minutos o escríbeme tus datos.",
		ProfileSummary:    "Esto es lo que tengo:\n%s\n¿Es correcto?",
		ConfirmUnclear:    "Responde sí si el resumen es correcto, o no para empezar de nuevo.",
		ProfileDenied:     "Sin problema, empecemos de nuevo. Cuéntame tu formación, experiencia, habilidades y nivel de idioma.",
		AskQualification: "Genial. ¿Cuándo podrías empezar y necesitas alguna adaptación para trabajar? " +
			"Cuéntame lo que sea relevante sobre tu disponibilidad.",
		AskNote:            "¿Hay algo más que quieras que sepa el reclutador? También puedes decir que no.",
		MatchesHeader:      "Estas posiciones encajan bien contigo:",
		MatchLine:          "%d. %s%s (coincidencia %.0f%%)",
		NoMatches:          "Ahora mismo no encontré una coincidencia clara, pero un reclutador revisará igualmente tu perfil.",
		PartialCaveat:      "Faltan algunos de tus datos, así que estas puntuaciones son conservadoras.",
		AskDispatchConsent: "¿Puedo enviar el resumen de tu perfil a un reclutador? Responde sí o no.",
		DispatchUnclear:    "Responde sí o no: ¿puedo enviar el resumen de tu perfil a un reclutador?",
		Dispatched:         "¡Listo! Un reclutador revisará tu perfil y se pondrá en contacto contigo. ¡Gracias!",
		DispatchFailed:     "No pude enviar tu perfil ahora. Vuelve a responder sí en unos minutos.",
		DispatchRefused:    "Entendido, no compartiré tu perfil. He eliminado nuestra conversación.",
		Closing:            "Nuestra conversación ha terminado. Escribe /reset si quieres empezar de nuevo.",
		GenericFailure:     "Lo siento, algo ha fallado por mi parte. Inténtalo de nuevo en un momento.",
		FieldEducation:     "Formación",
		FieldExperience:    "Experiencia",
		FieldSkills:        "Habilidades",
		FieldLanguage:      "Nivel de idioma",
		FieldName:          "Nombre",
		FieldDesiredTitle:  "Puesto deseado",
		FieldValueNotGiven: "sin indicar",
		SummaryLine:        "- %s: %s",
	},
}

// Catalog renders messages for a locale.
type Catalog struct{}

// Text renders id in locale, falling back to English. args fill the fmt verbs.
func (Catalog) Text(locale string, id ID, args ...any) string {
	tmpl, ok := lookup(locale, id)
	if !ok {
		return string(id)
	}
	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}

// Locales lists the supported locales.
func (Catalog) Locales() []string {
	return []string{"en", "es"}
}

func lookup(locale string, id ID) (string, bool) {
	if texts, ok := catalog[baseLocale(locale)]; ok {
		if tmpl, ok := texts[id]; ok {
			return tmpl, true
		}
	}
	tmpl, ok := catalog[DefaultLocale][id]
	return tmpl, ok
}

// baseLocale reduces "es-ES" or "es_MX" to "es".
func baseLocale(locale string) string {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if i := strings.IndexAny(locale, "-_"); i > 0 {
		locale = locale[:i]
	}
	return locale
}

