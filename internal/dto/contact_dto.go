package dto

type CreateContactRequest struct {
	Name    string `json:"name"    validate:"required,max=50"`
	Email   string `json:"email"   validate:"required,email,max=100"`
	Subject string `json:"subject" validate:"max=200"`
	Message string `json:"message" validate:"required,max=5000"`
}

type ContactResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
	CreatedAt string `json:"created_at"`
}
