package outbox

const templateCreatedSchema = `{
  "type": "object",
  "title": "WorkoutTemplateCreated",
  "properties": {
    "template_id": {"type": "string"},
    "user_id": {"type": "string"},
    "title": {"type": "string"},
    "intensity": {"type": "string", "enum": ["LOW", "MEDIUM", "HIGH"]},
    "exercise_count": {"type": "integer"},
    "tags": {"type": "array", "items": {"type": "string"}},
    "created_at": {"type": "string", "format": "date-time"}
  },
  "required": ["template_id", "user_id", "title", "intensity", "exercise_count", "created_at"],
  "additionalProperties": false
}`

const postCreatedSchema = `{
  "type": "object",
  "title": "WorkoutPostCreated",
  "properties": {
    "post_id": {"type": "string"},
    "user_id": {"type": "string"},
    "template_id": {"type": "string"},
    "title": {"type": "string"},
    "date": {"type": "string", "format": "date-time"},
    "intensity": {"type": "string", "enum": ["LOW", "MEDIUM", "HIGH"]},
    "exercise_count": {"type": "integer"},
    "media_count": {"type": "integer"},
    "created_at": {"type": "string", "format": "date-time"}
  },
  "required": ["post_id", "user_id", "title", "date", "intensity", "exercise_count", "media_count", "created_at"],
  "additionalProperties": false
}`
