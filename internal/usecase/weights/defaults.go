package weights

import (
	"github.com/johnquangdev/shot-analyzer/internal/domain/entities"
)

// ChecklistItemTemplate describes one criterion of the canonical checklist
type ChecklistItemTemplate struct {
	ID          string
	Name        string
	Description string
	Weight      float64
}

// ChecklistCategoryTemplate groups criteria by shot phase
type ChecklistCategoryTemplate struct {
	Name  string
	Items []ChecklistItemTemplate
}

// CanonicalChecklist is the rubric used by the AI rater and the default
// weight profiles. Default weights sum to 100.
var CanonicalChecklist = []ChecklistCategoryTemplate{
	{
		Name: "Fluidez",
		Items: []ChecklistItemTemplate{
			{ID: "tiro_un_solo_tiempo", Name: "Tiro en un solo tiempo", Description: "Continuous motion from set to release without a pause", Weight: 24},
			{ID: "sincronia_piernas", Name: "Sincronía con piernas", Description: "Leg extension drives the arm motion", Weight: 23},
		},
	},
	{
		Name: "Preparación",
		Items: []ChecklistItemTemplate{
			{ID: "alineacion_pies", Name: "Alineación de pies", Description: "Feet aligned toward the basket", Weight: 2},
			{ID: "alineacion_cuerpo", Name: "Alineación del cuerpo", Description: "Hips and shoulders square to the target", Weight: 2},
			{ID: "muneca_cargada", Name: "Muñeca cargada", Description: "Shooting wrist cocked back before ascent", Weight: 4},
			{ID: "flexion_rodillas", Name: "Flexión de rodillas", Description: "Knee bend loads the legs", Weight: 4},
			{ID: "hombros_relajados", Name: "Hombros relajados", Description: "No tension raising the shoulders", Weight: 3},
			{ID: "enfoque_visual", Name: "Enfoque visual", Description: "Eyes on the target throughout", Weight: 2},
		},
	},
	{
		Name: "Ascenso",
		Items: []ChecklistItemTemplate{
			{ID: "mano_no_dominante_ascenso", Name: "Mano no dominante en ascenso", Description: "Guide hand supports without pushing", Weight: 3},
			{ID: "codos_cerca_cuerpo", Name: "Codos cerca del cuerpo", Description: "Elbows stay under the ball", Weight: 2},
			{ID: "trayectoria_hasta_set_point", Name: "Trayectoria hasta set point", Description: "Straight path to the set point", Weight: 3},
			{ID: "subida_recta_balon", Name: "Subida recta del balón", Description: "Ball rises vertically in front of the face", Weight: 3},
			{ID: "set_point", Name: "Set point", Description: "Consistent set point above the forehead", Weight: 2},
			{ID: "tiempo_lanzamiento", Name: "Tiempo de lanzamiento", Description: "Release timed near the top of the jump", Weight: 4},
		},
	},
	{
		Name: "Liberación",
		Items: []ChecklistItemTemplate{
			{ID: "mano_no_dominante_liberacion", Name: "Mano no dominante en liberación", Description: "Guide hand releases cleanly", Weight: 2},
			{ID: "extension_completa_brazo", Name: "Extensión completa del brazo", Description: "Shooting arm fully extends", Weight: 4},
			{ID: "giro_pelota", Name: "Giro de la pelota", Description: "Backspin from the fingertips", Weight: 2},
			{ID: "angulo_salida", Name: "Ángulo de salida", Description: "Release angle gives an arched flight", Weight: 2},
		},
	},
	{
		Name: "Seguimiento / Post-liberación",
		Items: []ChecklistItemTemplate{
			{ID: "mantenimiento_equilibrio", Name: "Mantenimiento del equilibrio", Description: "Balanced body after release", Weight: 2},
			{ID: "equilibrio_aterrizaje", Name: "Equilibrio en aterrizaje", Description: "Lands near the take-off spot", Weight: 1},
			{ID: "duracion_follow_through", Name: "Duración del follow-through", Description: "Follow-through held until the ball lands", Weight: 1},
			{ID: "consistencia_repetitiva", Name: "Consistencia repetitiva", Description: "Same mechanics shot to shot", Weight: 5},
		},
	},
}

// DefaultWeights returns the canonical item weights
func DefaultWeights() map[string]float64 {
	weights := make(map[string]float64)
	for _, cat := range CanonicalChecklist {
		for _, item := range cat.Items {
			weights[item.ID] = item.Weight
		}
	}
	return weights
}

// DefaultProfile returns the built-in profile for a shot type
func DefaultProfile(shotType entities.ShotType) (*entities.WeightProfile, error) {
	p, err := entities.NewWeightProfile(shotType, DefaultWeights())
	if err != nil {
		return nil, err
	}
	p.Version = 0
	return p, nil
}

// CategoryOf returns the canonical category of an item id
func CategoryOf(itemID string) (string, bool) {
	for _, cat := range CanonicalChecklist {
		for _, item := range cat.Items {
			if item.ID == itemID {
				return cat.Name, true
			}
		}
	}
	return "", false
}
