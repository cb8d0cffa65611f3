package service_test

import sessiondto "saferun/internal/modules/session/dto"

func sessionDTO(owner string, minutes int) sessiondto.StartTimerInput {
	return sessiondto.StartTimerInput{OwnerID: owner, Minutes: minutes}
}

func checkInDTO(sessionID string) sessiondto.CheckInInput {
	return sessiondto.CheckInInput{SessionID: sessionID, Type: "safe"}
}
