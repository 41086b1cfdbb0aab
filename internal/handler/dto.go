package handler

import (
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/trip-tracker/internal/domain"
	"github.com/pkordes/trip-tracker/internal/service"
)

// TripResponse is a trip plus its status presentation.
type TripResponse struct {
	domain.Trip
	StatusLabel string `json:"statusLabel"`
	StatusColor string `json:"statusColor"`
}

// StopDetailResponse is a stop detail plus display-formatted time and price.
type StopDetailResponse struct {
	domain.StopDetail
	FormattedStopTime string `json:"formattedStopTime"`
	FormattedPrice    string `json:"formattedPrice"`
}

// StateResponse mirrors service.State with presentation fields filled in.
type StateResponse struct {
	Trips              []TripResponse       `json:"trips"`
	SelectedTrip       *TripResponse        `json:"selectedTrip"`
	StopDetails        []StopDetailResponse `json:"stopDetails"`
	SelectedStopDetail *StopDetailResponse  `json:"selectedStopDetail"`
	Region             domain.Region        `json:"region"`
	RouteCoordinates   []domain.Point       `json:"routeCoordinates"`
	ErrorMessage       *string              `json:"errorMessage"`
	Loading            bool                 `json:"loading"`
	ContactFormVisible bool                 `json:"contactFormVisible"`
	StopPopupVisible   bool                 `json:"stopPopupVisible"`
}

// ReportResponse is a stored contact report.
type ReportResponse struct {
	ID          openapi_types.UUID `json:"id"`
	Name        string             `json:"name"`
	Surname     string             `json:"surname"`
	FullName    string             `json:"fullName"`
	Email       string             `json:"email"`
	Phone       *string            `json:"phone,omitempty"`
	ReportDate  time.Time          `json:"reportDate"`
	Description string             `json:"description"`
}

// CreateReportRequest is the POST /reports body. The email is checked for
// shape while decoding; everything else is validated by the report store.
type CreateReportRequest struct {
	Name        string              `json:"name"`
	Surname     string              `json:"surname"`
	Email       openapi_types.Email `json:"email"`
	Phone       *string             `json:"phone,omitempty"`
	ReportDate  *time.Time          `json:"reportDate,omitempty"`
	Description string              `json:"description"`
}

// DeleteReportsRequest is the POST /reports/delete body.
type DeleteReportsRequest struct {
	Indices *[]int `json:"indices"`
}

// ContactFormRequest is the PUT /contact-form body.
type ContactFormRequest struct {
	Visible *bool `json:"visible"`
}

// HealthResponse is the GET /healthz body.
type HealthResponse struct {
	Status string `json:"status"`
}

func tripToResponse(t domain.Trip) TripResponse {
	return TripResponse{
		Trip:        t,
		StatusLabel: t.Status.DisplayName(),
		StatusColor: t.Status.Color(),
	}
}

func tripsToResponse(trips []domain.Trip) []TripResponse {
	out := make([]TripResponse, 0, len(trips))
	for _, t := range trips {
		out = append(out, tripToResponse(t))
	}
	return out
}

func (s *Server) stopToResponse(d domain.StopDetail) StopDetailResponse {
	return StopDetailResponse{
		StopDetail:        d,
		FormattedStopTime: domain.FormatStopTime(d.StopTime, s.loc),
		FormattedPrice:    domain.FormatPrice(d.Price),
	}
}

func (s *Server) stopsToResponse(details []domain.StopDetail) []StopDetailResponse {
	out := make([]StopDetailResponse, 0, len(details))
	for _, d := range details {
		out = append(out, s.stopToResponse(d))
	}
	return out
}

func (s *Server) stateToResponse(st service.State) StateResponse {
	resp := StateResponse{
		Trips:              tripsToResponse(st.Trips),
		StopDetails:        s.stopsToResponse(st.StopDetails),
		Region:             st.Region,
		RouteCoordinates:   st.RouteCoordinates,
		ErrorMessage:       st.ErrorMessage,
		Loading:            st.Loading,
		ContactFormVisible: st.ContactFormVisible,
		StopPopupVisible:   st.StopPopupVisible,
	}
	if resp.RouteCoordinates == nil {
		resp.RouteCoordinates = []domain.Point{}
	}
	if st.SelectedTrip != nil {
		t := tripToResponse(*st.SelectedTrip)
		resp.SelectedTrip = &t
	}
	if st.SelectedStopDetail != nil {
		d := s.stopToResponse(*st.SelectedStopDetail)
		resp.SelectedStopDetail = &d
	}
	return resp
}

func reportToResponse(r domain.ContactReport) ReportResponse {
	return ReportResponse{
		ID:          r.ID,
		Name:        r.Name,
		Surname:     r.Surname,
		FullName:    r.FullName(),
		Email:       r.Email,
		Phone:       r.Phone,
		ReportDate:  r.ReportDate,
		Description: r.Description,
	}
}

func reportsToResponse(reports []domain.ContactReport) []ReportResponse {
	out := make([]ReportResponse, 0, len(reports))
	for _, r := range reports {
		out = append(out, reportToResponse(r))
	}
	return out
}

func requestToReportInput(req CreateReportRequest) service.ReportInput {
	in := service.ReportInput{
		Name:        req.Name,
		Surname:     req.Surname,
		Email:       string(req.Email),
		Description: req.Description,
	}
	if req.Phone != nil {
		in.Phone = *req.Phone
	}
	if req.ReportDate != nil {
		in.ReportDate = *req.ReportDate
	}
	return in
}
