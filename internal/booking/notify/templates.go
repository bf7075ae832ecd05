package notify

import (
	"fmt"
	"time"

	"github.com/tolkdirekt/booking-be/internal/booking/domain"
)

// Params carries the substitution values a message template may use.
type Params struct {
	JobID       int64
	Language    string
	OldLanguage string
	Duration    int
	Due         time.Time
	OldTime     time.Time
	Town        string
	Physical    bool
	Immediate   bool
	SessionTime string
	ForText     string
	Role        domain.RecipientRole
}

// Templates resolves a notification kind and locale to human text. The
// booking core only knows kinds and params; wording lives here.
type Templates interface {
	Text(kind domain.NotificationKind, locale string, p Params) string
	Subject(kind domain.NotificationKind, jobID int64, p Params) string
	EmailTemplateKey(kind domain.NotificationKind, p Params) string
}

// SwedishTemplates is the built-in sv-SE template table.
type SwedishTemplates struct{}

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

func (SwedishTemplates) Text(kind domain.NotificationKind, locale string, p Params) string {
	switch kind {
	case domain.NotifySuitableJob:
		if p.Immediate {
			return fmt.Sprintf("Ny akutbokning för %stolk %dmin", p.Language, p.Duration)
		}
		return fmt.Sprintf("Ny bokning för %stolk %dmin %s", p.Language, p.Duration, p.Due.Format(dateLayout+" "+timeLayout))

	case domain.NotifyJobAccepted:
		return fmt.Sprintf("Din bokning för %s tolkning, %d min, %s har accepterats av en tolk. Vänligen öppna appen för att se detaljer om tolken.",
			p.Language, p.Duration, p.Due.Format(dateLayout+" "+timeLayout))

	case domain.NotifyJobCancelled:
		if p.Role == domain.RecipientCustomer {
			return fmt.Sprintf("Er %s tolkning %dmin %s, har avbokat tolkningen. Vi letar nu efter en ny tolk som kan ersätta denne. Tack.",
				p.Language, p.Duration, p.Due.Format(dateLayout+" "+timeLayout))
		}
		return fmt.Sprintf("Kunden har avbokat bokningen för %s tolk, %dmin, %s. Var god och kolla dina tidigare bokningar för detaljer.",
			p.Language, p.Duration, p.Due.Format(dateLayout+" "+timeLayout))

	case domain.NotifySessionStartRemind:
		place := "telefon"
		if p.Physical {
			place = "på plats i " + p.Town
		}
		return fmt.Sprintf("Detta är en påminnelse om att du har en %stolkning (%s) kl %s på %s som vara i %d min. Lycka till och kom ihåg att ge feedback efter utförd tolkning!",
			p.Language, place, p.Due.Format(timeLayout), p.Due.Format(dateLayout), p.Duration)

	case domain.NotifyJobExpired:
		return fmt.Sprintf("Tyvärr har ingen tolk accepterat er bokning: (%s, %d min, %s). Vänligen pröva boka om tiden.",
			p.Language, p.Duration, p.Due.Format(dateLayout+" "+timeLayout))

	case domain.NotifySMSPhoneJob:
		return fmt.Sprintf("Ny telefontolkning: %s kl %s, %s. Bokningsnr #%d. Öppna appen för att acceptera uppdraget!",
			p.Due.Format("02.01.2006"), p.Due.Format(timeLayout), domain.ConvertToHoursMins(p.Duration), p.JobID)

	case domain.NotifySessionEnded:
		return fmt.Sprintf("Tolkningen för bokningsnummer #%d är nu avslutad. Sessionstid: %s. Underlag: %s.",
			p.JobID, p.SessionTime, p.ForText)

	case domain.NotifySMSPhysicalJob:
		return fmt.Sprintf("Ny platstolkning i %s: %s kl %s, %s. Bokningsnr #%d. Öppna appen för att acceptera uppdraget!",
			p.Town, p.Due.Format("02.01.2006"), p.Due.Format(timeLayout), domain.ConvertToHoursMins(p.Duration), p.JobID)
	}
	return ""
}

func (SwedishTemplates) Subject(kind domain.NotificationKind, jobID int64, p Params) string {
	switch kind {
	case domain.NotifyJobCreated:
		return fmt.Sprintf("Vi har mottagit er tolkbokning. Bokningsnr: #%d", jobID)
	case domain.NotifyJobAccepted, domain.NotifyChangedTranslator:
		return fmt.Sprintf("Bekräftelse - tolk har accepterat er bokning (bokning #%d)", jobID)
	case domain.NotifySessionEnded, domain.NotifyJobCancelled, domain.NotifyStatusChanged:
		return fmt.Sprintf("Information om avslutad tolkning för bokningsnummer #%d", jobID)
	case domain.NotifyChangedDate, domain.NotifyChangedLang:
		return fmt.Sprintf("Meddelande om ändring av tolkbokning för uppdrag #%d", jobID)
	case domain.NotifyJobReopened:
		return fmt.Sprintf("Vi har nu återöppnat er bokning av %stolk för bokning #%d", p.Language, jobID)
	}
	return fmt.Sprintf("Information om er tolkbokning #%d", jobID)
}

func (SwedishTemplates) EmailTemplateKey(kind domain.NotificationKind, p Params) string {
	switch kind {
	case domain.NotifyJobCreated:
		return "emails.job-created"
	case domain.NotifyJobAccepted:
		return "emails.job-accepted"
	case domain.NotifyChangedTranslator:
		return "emails.job-changed-translator-new-translator"
	case domain.NotifySessionEnded:
		return "emails.session-ended"
	case domain.NotifyChangedDate:
		return "emails.job-changed-date"
	case domain.NotifyChangedLang:
		return "emails.job-changed-lang"
	case domain.NotifyJobReopened:
		return "emails.job-change-status-to-customer"
	case domain.NotifyStatusChanged:
		return "emails.status-changed-from-pending-or-assigned-customer"
	case domain.NotifyJobCancelled:
		if p.Role == domain.RecipientTranslator {
			return "emails.job-cancel-translator"
		}
		return "emails.status-changed-from-pending-or-assigned-customer"
	}
	return "emails.generic"
}
