package services

import (
	"github.com/kimconnect/internship-service/internal/models"
)

// ApplicationActor is the party requesting a status change.
type ApplicationActor string

const (
	ActorStudent  ApplicationActor = "student"
	ActorEmployer ApplicationActor = "employer"
	ActorAdmin    ApplicationActor = "admin"

	// ActorSystem is used for transitions that only side effects may cause
	ActorSystem ApplicationActor = "system"
)

type transition struct {
	from models.ApplicationStatus
	to   models.ApplicationStatus
}

// applicationTransitions lists every legal status change and who may make it.
var applicationTransitions = map[transition][]ApplicationActor{
	{models.ApplicationPending, models.ApplicationAccepted}:   {ActorEmployer, ActorAdmin},
	{models.ApplicationPending, models.ApplicationRejected}:   {ActorEmployer, ActorAdmin},
	{models.ApplicationPending, models.ApplicationWithdrawn}:  {ActorStudent},
	{models.ApplicationAccepted, models.ApplicationCompleted}: {ActorSystem},
}

// CheckTransition returns a TransitionError when from->to is not a legal move
// and a PermissionError when it is legal but not for actor.
func CheckTransition(from, to models.ApplicationStatus, actor ApplicationActor, userID, applicationID uint) error {
	allowed, ok := applicationTransitions[transition{from: from, to: to}]
	if !ok {
		return &TransitionError{From: from, To: to}
	}
	for _, a := range allowed {
		if a == actor {
			return nil
		}
	}
	return NewPermissionError(userID, applicationID, "application", "transition to "+string(to),
		string(actor)+" may not move an application from "+string(from))
}

func actorFor(role models.UserRole) ApplicationActor {
	switch role {
	case models.RoleStudent:
		return ActorStudent
	case models.RoleEmployer:
		return ActorEmployer
	case models.RoleAdmin:
		return ActorAdmin
	}
	return ""
}

// reviewUpdate is the part of an update an employer or admin may write.
type reviewUpdate struct {
	Status   *models.ApplicationStatus
	Feedback *string
}

// withdrawal is the part of an update a student may write.
type withdrawal struct {
	Status *models.ApplicationStatus
}

func reviewUpdateFrom(req *UpdateApplicationRequest) reviewUpdate {
	return reviewUpdate{Status: req.Status, Feedback: req.Feedback}
}

func withdrawalFrom(req *UpdateApplicationRequest) withdrawal {
	return withdrawal{Status: req.Status}
}
