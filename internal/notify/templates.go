package notify

import "fmt"

// Message templates sent to patients. Wording matches what front-desk staff
// have already communicated to patients, so change with care.

const facilityName = "MediCare Ghana"

func Reminder24h(clinicianName, appointmentTime string) string {
	return fmt.Sprintf(
		"Reminder: Your appointment with Dr. %s is TOMORROW at %s.\n\nReply:\n1-CONFIRM\n2-RESCHEDULE\n3-CANCEL\n\n-%s",
		clinicianName, appointmentTime, facilityName)
}

func Reminder2h(clinicianName, appointmentTime string) string {
	return fmt.Sprintf(
		"Your appointment with Dr. %s is in 2 HOURS at %s.\n\nSee you soon at %s!",
		clinicianName, appointmentTime, facilityName)
}

func RunningLate(clinicianName string, delayMinutes int, newTime string) string {
	return fmt.Sprintf(
		"Update: Dr. %s is running %d minutes late.\n\nYour new estimated time: %s\n\nReply 1 to WAIT or 2 to RESCHEDULE.",
		clinicianName, delayMinutes, newTime)
}

func Cancelled(appointmentTime string) string {
	return fmt.Sprintf(
		"Your %s appointment has been cancelled.\n\nPlease call to rebook if this was in error.\n\n-%s",
		appointmentTime, facilityName)
}

func NoShow(appointmentTime string) string {
	return fmt.Sprintf(
		"We missed you at your %s appointment.\n\nPlease call to reschedule.\n\n-%s",
		appointmentTime, facilityName)
}

func QueueJoined(patientName, queueNumber string, waitMinutes int) string {
	return fmt.Sprintf(
		"Dear %s, you are in the queue. Your number is %s, estimated wait %d minutes. -%s",
		patientName, queueNumber, waitMinutes, facilityName)
}

func QueueTurnNow(roomNumber string) string {
	if roomNumber == "" {
		roomNumber = "the consultation room"
	}
	return fmt.Sprintf("It's your turn! Please proceed to %s. -%s", roomNumber, facilityName)
}

func QueueTurnSoon(queueNumber string) string {
	return fmt.Sprintf(
		"Your turn is coming up! Please be ready in the waiting area. Queue: #%s -%s",
		queueNumber, facilityName)
}
